// Package identity assigns stable identifiers to notes.
//
// An identifier lives in one front-matter field. Once set it is never
// replaced by local generation; only the reconciler may overwrite it.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/frontmatter"
)

// Result describes how GetOrCreate obtained the identifier.
type Result struct {
	Identifier string
	// Generated is true when the identifier was created by this call.
	Generated bool
	// Persisted is false when the identifier could not be stored in the note,
	// e.g. because the header is malformed. The identifier is still usable.
	Persisted bool
	// MetadataErr holds the recovered header parse failure, if any.
	MetadataErr error
}

// Manager performs identifier reads and read-modify-write updates on a store.
type Manager struct {
	store  core.DocumentStore
	logger *slog.Logger
	newID  func() string

	locks keyedMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithGenerator replaces uuid.NewString, mostly for tests.
func WithGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// New creates a Manager over store.
func New(store core.DocumentStore, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Lookup reads the note and returns the current value of field.
// A malformed header yields "" together with the parse error.
func (m *Manager) Lookup(ctx context.Context, docID, field string) (string, error) {
	text, err := m.store.Read(ctx, docID)
	if err != nil {
		return "", err
	}
	note, err := frontmatter.Parse(text)
	return note.Metadata.Lookup(field), err
}

// GetOrCreate returns the note's identifier, generating and storing a new
// UUID when the field is missing or blank.
//
// The value read back after the write is authoritative, so a concurrent
// writer that set the field first wins.
func (m *Manager) GetOrCreate(ctx context.Context, docID, field string) (Result, error) {
	current, err := m.Lookup(ctx, docID, field)
	if err != nil && !errors.Is(err, core.ErrMalformedMetadata) {
		return Result{}, err
	}
	if strings.TrimSpace(current) != "" {
		return Result{Identifier: current, Persisted: true}, nil
	}

	generated := m.newID()
	if err != nil {
		m.logger.Warn("front-matter is malformed, identifier not stored", "id", docID, "error", err)
		return Result{Identifier: generated, Generated: true, MetadataErr: err}, nil
	}

	if _, err := m.SetField(ctx, docID, field, generated, false); err != nil {
		if errors.Is(err, core.ErrMalformedMetadata) {
			m.logger.Warn("front-matter is malformed, identifier not stored", "id", docID, "error", err)
			return Result{Identifier: generated, Generated: true, MetadataErr: err}, nil
		}
		return Result{Identifier: generated, Generated: true}, err
	}

	stored, err := m.Lookup(ctx, docID, field)
	if err != nil {
		return Result{Identifier: generated, Generated: true}, err
	}
	if strings.TrimSpace(stored) == "" {
		return Result{Identifier: generated, Generated: true}, fmt.Errorf("%s: identifier missing after write", docID)
	}
	if stored != generated {
		m.logger.Debug("identifier set concurrently", "id", docID, "identifier", stored)
		return Result{Identifier: stored, Persisted: true}, nil
	}

	m.logger.Info("identifier created", "id", docID, "identifier", stored)
	return Result{Identifier: stored, Generated: true, Persisted: true}, nil
}

// SetField re-reads the note and writes value into field.
// It reports whether the note was rewritten. Calls for the same note are
// serialized within this process.
func (m *Manager) SetField(ctx context.Context, docID, field, value string, overwrite bool) (bool, error) {
	unlock := m.locks.lock(docID)
	defer unlock()

	text, err := m.store.Read(ctx, docID)
	if err != nil {
		return false, err
	}
	out, changed, err := frontmatter.SetField(text, field, value, overwrite)
	if err != nil {
		return false, fmt.Errorf("%s: %w", docID, err)
	}
	if !changed {
		return false, nil
	}
	if err := m.store.Write(ctx, docID, out); err != nil {
		return false, err
	}
	return true, nil
}

// keyedMutex hands out one mutex per key and forgets it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
