// Package registry provides the central "glue" for the node-kind system.
//
// The Registry maps the kind strings stored on nodes (e.g. "function_call")
// to their compiled definitions: class, mutation schema, shape layout and
// the event hooks the dispatcher invokes. Kinds are contributed by Module
// implementations under modules/.
//
// During application startup the registry is populated and then validated,
// so that a broken kind definition fails fast instead of surfacing as a
// confusing rebuild error in the middle of an edit.
package registry
