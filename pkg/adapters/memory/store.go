// Package memory provides an in-process core.DocumentStore.
// It backs tests and dry runs where no vault directory exists.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bak-libra26/note-relay/pkg/core"
)

// Store keeps documents in a map guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]string
	reads  int
	writes int

	// BeforeWrite, when set, runs after a caller's last Read and before its Write
	// is applied. Tests use it to simulate an editor changing the note mid-sync.
	BeforeWrite func(id string)
}

// NewStore returns a store seeded with docs (id -> text).
func NewStore(docs map[string]string) *Store {
	s := &Store{docs: make(map[string]string, len(docs))}
	for id, text := range docs {
		s.docs[id] = text
	}
	return s
}

// Read implements core.DocumentStore.
func (s *Store) Read(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	text, ok := s.docs[id]
	if !ok {
		return "", fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	return text, nil
}

// Write implements core.DocumentStore.
func (s *Store) Write(ctx context.Context, id string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("document has no ID")
	}
	if hook := s.BeforeWrite; hook != nil {
		hook(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = text
	s.writes++
	return nil
}

// Put sets a document directly, bypassing the write counter and hooks.
func (s *Store) Put(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = text
}

// Get returns the stored text without counting a read.
func (s *Store) Get(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[id]
	return text, ok
}

// List implements core.Lister.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Writes returns how many writes were applied.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Reads returns how many reads were served.
func (s *Store) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

var _ core.DocumentStore = (*Store)(nil)
var _ core.Lister = (*Store)(nil)
