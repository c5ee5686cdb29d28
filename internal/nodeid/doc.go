// internal/nodeid/doc.go

/*
Package nodeid provides the identifier type used for every node in a
program graph.

Identifiers are opaque strings chosen by the hosting editor (Blockly-style
random ids) or minted by a Generator. The package enforces the identifier
schema `[A-Za-z0-9_.:-]{1,64}` and centralizes generation so that tests
can swap in a deterministic sequence.
*/
package nodeid
