// Package signature keeps call sites in step with the functions they call.
package signature

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/event"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/nodeid"
	"github.com/vk/blockbind/internal/scope"
	"github.com/vk/blockbind/internal/shape"
)

// Mutation fields of call sites and functions.
const (
	CallName           = "name"
	CallResult         = "result"
	CallParameters     = "parameters"
	CallParameterTypes = "parameterTypes"

	FunctionResultType = "resultType"
	FieldResultType    = "RTYPE"
)

// MaxParameters bounds the parameter count a call site can be shaped for.
const MaxParameters = 64

// Outcome reports what Sync did.
type Outcome int

const (
	Unchanged Outcome = iota
	Mirrored
	Rebuilt
	Unresolved
)

func (o Outcome) String() string {
	return [...]string{"unchanged", "mirrored", "rebuilt", "unresolved"}[o]
}

// FormatTypes renders a parameter type list for mutation data.
func FormatTypes(tags []graph.TypeTag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// ParseTypes reads a list written by FormatTypes. Unknown names read as Void.
func ParseTypes(s string) []graph.TypeTag {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]graph.TypeTag, len(parts))
	for i, p := range parts {
		t, err := graph.ParseTypeTag(p)
		if err != nil {
			t = graph.TypeVoid
		}
		out[i] = t
	}
	return out
}

// ResultType reads the declared result type of a function. The host field
// wins over the mutation value.
func ResultType(fn *graph.Node) graph.TypeTag {
	raw := fn.Field(FieldResultType)
	if raw == "" {
		raw = fn.Mutation.String(FunctionResultType)
	}
	t, err := graph.ParseTypeTag(raw)
	if err != nil {
		return graph.TypeVoid
	}
	return t
}

// Propagator synchronizes call sites with function definitions.
type Propagator struct {
	g      *graph.Graph
	scopes *scope.Resolver
	shapes *shape.Reconciler
}

// New creates a propagator.
func New(g *graph.Graph, scopes *scope.Resolver, shapes *shape.Reconciler) *Propagator {
	return &Propagator{g: g, scopes: scopes, shapes: shapes}
}

// Signature derives a function's signature from its parameter definitions
// and declared result type.
func (p *Propagator) Signature(fn *graph.Node) graph.Signature {
	sig := graph.Signature{Name: scope.FunctionName(fn), Return: ResultType(fn)}
	for _, d := range p.scopes.Definitions(fn) {
		if b := scope.DefinitionOf(d); b.Role == scope.RoleParameter {
			sig.Params = append(sig.Params, b.Type)
		}
	}
	return sig
}

// Declared is the signature a call site's current mutation data describes.
func Declared(call *graph.Node) graph.Signature {
	ret, err := graph.ParseTypeTag(call.Mutation.String(CallResult))
	if err != nil {
		ret = graph.TypeVoid
	}
	count := min(max(call.Mutation.Int(CallParameters), 0), MaxParameters)
	params := ParseTypes(call.Mutation.String(CallParameterTypes))
	for len(params) < count {
		params = append(params, graph.TypeVoid)
	}
	return graph.Signature{Name: BoundName(call), Return: ret, Params: params[:count]}
}

// BoundName is the function name a call site refers to.
func BoundName(call *graph.Node) string {
	if name := call.Field(scope.FieldName); name != "" {
		return name
	}
	return call.Mutation.String(CallName)
}

// Sync re-binds a call site. ev is the event that triggered the sync and
// may be nil.
//
// A rename of the watched function is mirrored onto the call site instead of
// looked up, so the binding survives the moment in which the old name is
// gone and the new one has not been seen yet.
func (p *Propagator) Sync(ctx context.Context, call *graph.Node, ev *event.Event) (Outcome, error) {
	if call.Palette {
		return Unchanged, nil
	}
	logger := ctxlog.FromContext(ctx).With("call", call.ID)
	if call.Cache == nil {
		call.Cache = &graph.ResolutionCache{}
	}
	cache := call.Cache

	if ev != nil && ev.IsFieldChange(scope.FieldName) && ev.NodeID != call.ID &&
		!cache.DefinitionID.IsZero() && ev.NodeID == cache.DefinitionID {
		if err := p.mirrorName(call, ev.NewValue); err != nil {
			return Unchanged, err
		}
		logger.Debug("Mirrored function rename onto call site.", "name", ev.NewValue)
		return Mirrored, nil
	}

	name := BoundName(call)
	fn, ok := p.scopes.Function(name)
	if !ok {
		if !cache.Unresolved {
			logger.Warn("Call site is unresolved.", "name", name)
		}
		cache.BoundName = name
		cache.DefinitionID = nodeid.None
		cache.Unresolved = true
		call.Watch = nil
		call.Warning = fmt.Sprintf("unknown function %q", name)
		return Unresolved, nil
	}

	sig := p.Signature(fn)
	watch := []nodeid.ID{fn.ID}
	for _, d := range p.scopes.Definitions(fn) {
		watch = append(watch, d.ID)
	}
	call.Watch = watch
	call.Warning = ""
	cache.BoundName = name
	cache.DefinitionID = fn.ID
	cache.Unresolved = false
	cache.Signature = &sig

	// The call site's mutation data is the persisted copy of the last
	// signature it was shaped for.
	if Declared(call).SameShape(sig) {
		return Unchanged, nil
	}

	_, err := p.shapes.Update(ctx, call, map[string]any{
		CallResult:         sig.Return.String(),
		CallParameters:     len(sig.Params),
		CallParameterTypes: FormatTypes(sig.Params),
	})
	if err != nil {
		return Rebuilt, fmt.Errorf("failed to rebuild call site %s: %w", call.ID, err)
	}
	logger.Debug("Call site follows new signature.", "signature", sig.String())
	return Rebuilt, nil
}

func (p *Propagator) mirrorName(call *graph.Node, name string) error {
	call.Cache.BoundName = name
	if err := call.Mutation.Set(CallName, name); err != nil {
		return err
	}
	return p.g.SetField(call.ID, scope.FieldName, name)
}
