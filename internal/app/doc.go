// Package app contains the core application logic. It wires a workspace
// from configuration, runs the check, replay, format, watch and serve
// workflows, and is decoupled from any specific entrypoint like a CLI.
package app
