// internal/nodeid/id.go
package nodeid

import (
	"fmt"
	"regexp"
)

// maxLength bounds identifiers accepted from documents and the bridge.
const maxLength = 64

var idRegex = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// ID identifies a node within a single graph. The zero value means "no node".
type ID string

// None is the empty identifier.
const None ID = ""

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool {
	return id == None
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// Parse validates a raw identifier and returns it as an ID.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return None, fmt.Errorf("identifier cannot be empty")
	}
	if len(raw) > maxLength {
		return None, fmt.Errorf("identifier %q exceeds %d characters", raw, maxLength)
	}
	if !idRegex.MatchString(raw) {
		return None, fmt.Errorf("invalid identifier format: %q", raw)
	}
	return ID(raw), nil
}

// MustParse is like Parse but panics on error. It is meant for fixtures.
func MustParse(raw string) ID {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// Contains reports whether ids holds id.
func Contains(ids []ID, id ID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
