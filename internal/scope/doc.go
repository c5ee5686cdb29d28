// Package scope resolves names against the scopes of a program graph.
//
// A scope is a scope-root node (the single global root, or a function
// definition) plus the ordered chain of definition nodes plugged into its
// VARIABLES socket and linked through each definition's NEXT socket. Nothing
// here is cached: every query walks the arena, so results always reflect the
// graph as it is at the moment of the call.
//
// Function scopes see their own definitions first and the global definitions
// after them. Function names are global symbols and take part in name
// validation everywhere.
package scope
