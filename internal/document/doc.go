// Package document defines the format-agnostic persistence model of a
// workspace, along with the core interfaces (Loader, ScriptLoader, Writer)
// for reading and writing it from various sources.
//
// A Document is a flat list of node records; structure is carried by each
// record's parent id and socket name. A Script is an ordered list of host
// operations that can be replayed against a workspace. Concrete
// implementations of the interfaces, such as for HCL, are provided in
// separate packages.
package document
