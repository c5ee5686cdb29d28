// Package graph is the node arena of a program graph: an id-indexed table of
// typed nodes connected parent→child through named sockets.
//
// # Model
//
// A Node is a typed block. Its Kind names the registered definition it was
// created from, and its Class tells the engine which role it plays in name
// resolution:
//
//	┌─────────────────────┬──────────────────────────────────────────────┐
//	│ Class               │ Meaning                                      │
//	├─────────────────────┼──────────────────────────────────────────────┤
//	│ ClassGlobalScope    │ root of the global scope                     │
//	│ ClassFunctionScope  │ root of a function scope                     │
//	│ ClassDefinition     │ variable or parameter definition             │
//	│ ClassReference      │ reads or writes a variable by name           │
//	│ ClassCallSite       │ calls a function by name                     │
//	│ ClassPlain          │ any other statement or expression            │
//	└─────────────────────┴──────────────────────────────────────────────┘
//
// Sockets are ordered, named, typed connection points. A Value socket accepts
// a child whose output connector carries one of its accepted TypeTags (an empty
// set accepts anything, and a Void output plugs anywhere). A Statement socket
// accepts a child with a statement connector. Scopes are not stored: a scope is
// a scope root plus the chain of definitions reachable through its VARIABLES
// socket and each definition's NEXT socket (see Chain).
//
// # Events
//
// Every structural primitive (Add, Connect, Disconnect, SetField, SetPosition,
// Delete, NotifyMutation) reports what it did through the Emitter installed
// with SetEmitter. The graph never interprets those events itself; the owner
// (usually a workspace) forwards them to the dispatcher. Mute suppresses
// emission while a document is being loaded.
//
// # Ownership
//
// Nodes never point at each other. Parent links, plugged children and
// watch-lists are all ids resolved through the arena on each use, so deleting
// a node cannot leave a dangling pointer behind.
//
// # Thread-Safety
//
// A Graph is not safe for concurrent use. All mutation happens synchronously
// on the goroutine that owns the workspace; outer surfaces (bridge, watcher)
// funnel their work onto that goroutine.
package graph
