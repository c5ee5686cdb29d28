package graph

import (
	"fmt"
	"strings"
)

// TypeTag is the fixed set of value types blocks carry.
type TypeTag int

const (
	TypeVoid TypeTag = iota
	TypeNumber
	TypeBoolean
	TypeColor
	TypeString
	TypeImage
	TypeStatement
)

var typeTagNames = []string{"Void", "Number", "Boolean", "Color", "String", "Image", "Statement"}

func (t TypeTag) String() string {
	if int(t) >= 0 && int(t) < len(typeTagNames) {
		return typeTagNames[t]
	}
	return fmt.Sprintf("TypeTag(%d)", int(t))
}

// ParseTypeTag accepts the canonical names case-insensitively. The empty
// string and "None" both mean Void.
func ParseTypeTag(s string) (TypeTag, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return TypeVoid, nil
	}
	for i, name := range typeTagNames {
		if strings.EqualFold(s, name) {
			return TypeTag(i), nil
		}
	}
	return TypeVoid, fmt.Errorf("unknown type tag %q", s)
}

// TypeSet is a set of TypeTags. The empty set accepts every value type.
type TypeSet uint16

// TypesOf builds a set from the given tags.
func TypesOf(tags ...TypeTag) TypeSet {
	var s TypeSet
	for _, t := range tags {
		s |= 1 << uint(t)
	}
	return s
}

// AnyValue is the unrestricted value set.
const AnyValue TypeSet = 0

// Accepting is the set a socket typed t accepts: just t, or anything for Void.
func Accepting(t TypeTag) TypeSet {
	if t == TypeVoid {
		return AnyValue
	}
	return TypesOf(t)
}

// Has reports whether t is an explicit member of the set.
func (s TypeSet) Has(t TypeTag) bool {
	return s&(1<<uint(t)) != 0
}

// Accepts reports whether a value of type t may be plugged into a socket
// with this set.
func (s TypeSet) Accepts(t TypeTag) bool {
	return s == AnyValue || t == TypeVoid || s.Has(t)
}

// Tags lists the members in declaration order.
func (s TypeSet) Tags() []TypeTag {
	var tags []TypeTag
	for i := range typeTagNames {
		if s.Has(TypeTag(i)) {
			tags = append(tags, TypeTag(i))
		}
	}
	return tags
}

func (s TypeSet) String() string {
	if s == AnyValue {
		return "*"
	}
	names := make([]string, 0, len(typeTagNames))
	for _, t := range s.Tags() {
		names = append(names, t.String())
	}
	return strings.Join(names, "|")
}

// Role is how a socket connects to its child.
type Role int

const (
	RoleValue Role = iota
	RoleStatement
)

func (r Role) String() string {
	if r == RoleStatement {
		return "statement"
	}
	return "value"
}

// Class is the part a node plays in name resolution.
type Class int

const (
	ClassPlain Class = iota
	ClassGlobalScope
	ClassFunctionScope
	ClassDefinition
	ClassReference
	ClassCallSite
)

var classNames = []string{"plain", "global_scope", "function_scope", "definition", "reference", "call_site"}

func (c Class) String() string {
	if int(c) >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// IsScopeRoot reports whether nodes of this class own a scope.
func (c Class) IsScopeRoot() bool {
	return c == ClassGlobalScope || c == ClassFunctionScope
}

// ConnectorKind describes how a node plugs into its parent.
type ConnectorKind int

const (
	ConnectorNone ConnectorKind = iota
	ConnectorValue
	ConnectorStatement
)

// Connector is a node's upward connection point.
type Connector struct {
	Kind ConnectorKind
	Type TypeTag
}

// ValueOutput is a value connector of type t.
func ValueOutput(t TypeTag) Connector {
	return Connector{Kind: ConnectorValue, Type: t}
}

// StatementConnector is the previous-statement connector.
func StatementConnector() Connector {
	return Connector{Kind: ConnectorStatement, Type: TypeStatement}
}

func (c Connector) String() string {
	switch c.Kind {
	case ConnectorValue:
		return "output:" + c.Type.String()
	case ConnectorStatement:
		return "statement"
	default:
		return "none"
	}
}

// SocketSpec is the declarative part of a socket.
type SocketSpec struct {
	Name    string
	Role    Role
	Accepts TypeSet
}

// ValueSocket declares a value socket.
func ValueSocket(name string, accepts TypeSet) SocketSpec {
	return SocketSpec{Name: name, Role: RoleValue, Accepts: accepts}
}

// StatementSocket declares a statement socket.
func StatementSocket(name string) SocketSpec {
	return SocketSpec{Name: name, Role: RoleStatement}
}

// Fits reports whether a child with connector c may be plugged into the socket.
func (s SocketSpec) Fits(c Connector) bool {
	switch s.Role {
	case RoleStatement:
		return c.Kind == ConnectorStatement
	default:
		return c.Kind == ConnectorValue && s.Accepts.Accepts(c.Type)
	}
}

// Shape is the complete layout a node kind derives from its mutation data.
type Shape struct {
	Sockets []SocketSpec
	Output  Connector
}

// Point is a workspace position.
type Point struct {
	X, Y float64
}

// Add returns the offset point.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}
