// Package bridge connects a workspace to the hosting editor over socket.io.
// The editor sends block_event messages describing edits; after each edit
// the bridge publishes the current binding report.
package bridge
