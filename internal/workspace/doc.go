// Package workspace owns one editable program: its node graph and every
// engine component bound to it.
//
// A Workspace is the single entry point for hosts. Each host operation runs
// as one dispatch pass under a fresh event group, so the synthetic events it
// causes (renames carried to references, call sites reshaped, orphans
// parked) settle before the operation returns.
//
// A Workspace is not safe for concurrent use; hosts serialize access.
package workspace
