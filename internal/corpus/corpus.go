// Package corpus holds the run-scoped working set of cleaned documents.
// Admission is the pipeline's only cross-stage synchronization point: the
// dedup check-and-insert is atomic per fingerprint, and closing the store is
// the barrier the analysis engine waits on.
package corpus

import (
	"errors"
	"sync"

	"github.com/fieldworkhq/marketscout/internal/normalize"
)

// ErrOpen is returned when corpus-wide reads are attempted before closure.
var ErrOpen = errors.New("corpus is not closed")

// Store supports concurrent append with atomic fingerprint dedup. The dedup
// set never shrinks within a run; the store is discarded at run end.
type Store struct {
	mu     sync.Mutex
	docs   []normalize.Document
	seen   map[string]struct{}
	closed bool
}

// NewStore returns an empty open store.
func NewStore() *Store {
	return &Store{seen: map[string]struct{}{}}
}

// Admit appends the document unless its fingerprint was already admitted.
// Returns true when the document joined the corpus, false for duplicates.
// Earlier-seen documents always survive over later ones, which keeps
// ordering deterministic under a fixed arrival order. Admitting into a
// closed store panics: it is a pipeline sequencing bug, not a data error.
func (s *Store) Admit(doc normalize.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		panic("corpus: admit after close")
	}
	if _, dup := s.seen[doc.Fingerprint]; dup {
		return false
	}
	s.seen[doc.Fingerprint] = struct{}{}
	s.docs = append(s.docs, doc)
	return true
}

// Close declares the corpus complete. Idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether the corpus has been declared complete.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Docs returns the admitted documents in arrival order. Only valid after
// closure, since corpus-wide statistics need a fixed denominator.
func (s *Store) Docs() ([]normalize.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		return nil, ErrOpen
	}
	out := make([]normalize.Document, len(s.docs))
	copy(out, s.docs)
	return out, nil
}

// Len reports the number of admitted documents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
