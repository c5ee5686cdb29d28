// internal/nodeid/generator.go
package nodeid

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator mints fresh identifiers for nodes created by the engine itself.
type Generator interface {
	Next() ID
}

// UUIDGenerator produces random v4 identifiers.
type UUIDGenerator struct{}

// Next implements Generator.
func (UUIDGenerator) Next() ID {
	return ID(uuid.NewString())
}

// Sequence produces `prefix1`, `prefix2`, ... and is safe for concurrent use.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequence returns a deterministic generator, mostly useful in tests.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Next implements Generator.
func (s *Sequence) Next() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return ID(fmt.Sprintf("%s%d", s.prefix, s.n))
}
