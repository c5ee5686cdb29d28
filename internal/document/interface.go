package document

import (
	"context"
	"io"
)

// Loader is the interface for a format-specific document loader.
type Loader interface {
	// Load reads every document file under the given paths and merges them
	// into a single Document.
	Load(ctx context.Context, paths ...string) (*Document, error)
}

// ScriptLoader reads replayable edit scripts.
type ScriptLoader interface {
	LoadScript(ctx context.Context, paths ...string) (*Script, error)
}

// Writer serializes a Document.
type Writer interface {
	Write(w io.Writer, doc *Document) error
}
