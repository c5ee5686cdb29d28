// Package shape keeps a node's socket layout equal to the layout its kind
// derives from the node's mutation data.
//
// The Reconciler never deletes nodes. A socket that disappears, or whose
// accepted types no longer admit its child, hands the child to the
// DisconnectPolicy, which by default unplugs it and parks it next to its
// former parent where the user can pick it up again. Sockets that survive a
// rebuild keep their plugged sub-trees untouched.
package shape
