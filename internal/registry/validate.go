package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/graph"
	"github.com/vk/blockbind/internal/scope"
)

// Validate performs a strict consistency check over every registered kind.
// It checks the mutation schema and the shape the kind takes with default
// values.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, k := range r.Kinds() {
		if err := k.Schema.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("kind '%s': %v", k.Name, err))
			continue
		}
		if (k.Class == graph.ClassReference || k.Class == graph.ClassCallSite) && k.Hooks.OnFinishedLoading == nil {
			logger.Warn("Binding kind has no finished-loading hook; loaded nodes will stay unresolved until edited.", "kind", k.Name)
		}

		sh := k.Layout(k.Schema.Defaults())
		seen := make(map[string]bool, len(sh.Sockets))
		for _, s := range sh.Sockets {
			if seen[s.Name] {
				errs = append(errs, fmt.Sprintf("kind '%s': layout declares socket '%s' twice", k.Name, s.Name))
			}
			seen[s.Name] = true
		}

		switch k.Class {
		case graph.ClassGlobalScope, graph.ClassFunctionScope:
			if !layoutCanExpose(k, scope.DefinitionSocket) {
				errs = append(errs, fmt.Sprintf("kind '%s': scope roots must expose a '%s' socket", k.Name, scope.DefinitionSocket))
			}
		case graph.ClassDefinition:
			if !seen[scope.NextSocket] {
				errs = append(errs, fmt.Sprintf("kind '%s': definitions must expose a '%s' socket", k.Name, scope.NextSocket))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated.", "kinds", len(r.kinds))
	return nil
}

// layoutCanExpose reports whether the kind has the socket either with
// default values or once its mutation asks for definitions.
func layoutCanExpose(k *Kind, socket string) bool {
	probes := []map[string]any{nil, {"hasVariables": true}, {"variables": 1}}
	for _, probe := range probes {
		data := k.Schema.Defaults()
		ok := true
		for name, v := range probe {
			if _, has := k.Schema.Field(name); !has {
				ok = false
				break
			}
			if err := data.Set(name, v); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, s := range k.Layout(data).Sockets {
			if s.Name == socket {
				return true
			}
		}
	}
	return false
}
