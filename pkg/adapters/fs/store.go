// Package fs implements core.DocumentStore on a directory of Markdown notes.
package fs

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bak-libra26/note-relay/pkg/core"
)

// TempFilePrefix marks in-progress writes; they are never listed or watched.
const TempFilePrefix = ".noterelay-tmp-"

// Config holds the configuration for the filesystem store.
type Config struct {
	Path   string
	Logger *slog.Logger
	// SkipDirs are directory names never listed or watched (e.g. ".git", ".obsidian").
	SkipDirs []string
}

// DefaultSkipDirs are ignored when Config.SkipDirs is nil.
var DefaultSkipDirs = []string{".git", ".obsidian", ".trash"}

// Store reads and writes notes below a root directory.
type Store struct {
	Path   string
	config Config

	mu        sync.RWMutex
	lastWrite map[string][sha256.Size]byte
	writes    int
}

// NewStore creates a filesystem-backed store rooted at config.Path.
func NewStore(config Config) (*Store, error) {
	abs, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault path does not exist: %s", abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault path is not a directory: %s", abs)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.SkipDirs == nil {
		config.SkipDirs = DefaultSkipDirs
	}
	config.Path = abs

	return &Store{
		Path:      abs,
		config:    config,
		lastWrite: make(map[string][sha256.Size]byte),
	}, nil
}

// Read returns the current text of the note.
func (s *Store) Read(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.resolve(id)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", id, core.ErrNotFound)
		}
		return "", fmt.Errorf("failed to read %s: %w", id, err)
	}
	return string(data), nil
}

// Write replaces the note atomically, keeping the file's permissions.
func (s *Store) Write(ctx context.Context, id string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(id)
	if err != nil {
		return err
	}

	perm := os.FileMode(0644)
	if info, err := os.Stat(full); err == nil {
		perm = info.Mode().Perm()
	} else if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := replaceFile(full, []byte(text), perm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	s.mu.Lock()
	s.lastWrite[id] = sha256.Sum256([]byte(text))
	s.writes++
	s.mu.Unlock()

	s.config.Logger.Debug("note written", "id", id, "bytes", len(text))
	return nil
}

// List walks the vault and returns every regular file as a slash-separated ID.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(s.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != s.Path && s.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}
		id, err := s.ID(path)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// AbsPath implements core.Locator.
func (s *Store) AbsPath(id string) (string, bool) {
	full, err := s.resolve(id)
	if err != nil {
		return "", false
	}
	return full, true
}

// ID converts an absolute or vault-relative path to a document ID.
func (s *Store) ID(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.Path, path)
	}
	rel, err := filepath.Rel(s.Path, path)
	if err != nil {
		return "", err
	}
	if rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", fmt.Errorf("path %s is outside the vault", path)
	}
	return filepath.ToSlash(rel), nil
}

// Echo reports whether the note on disk is exactly what this store last wrote.
// The watcher uses it to drop events caused by our own identifier writes.
func (s *Store) Echo(id string) bool {
	s.mu.RLock()
	sum, ok := s.lastWrite[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	full, err := s.resolve(id)
	if err != nil {
		return false
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return false
	}
	return sha256.Sum256(data) == sum
}

func (s *Store) skipDir(name string) bool {
	for _, skip := range s.config.SkipDirs {
		if name == skip {
			return true
		}
	}
	return false
}

// resolve maps an ID to a path below the root, rejecting escapes.
func (s *Store) resolve(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("document has no ID")
	}
	clean := filepath.Clean(filepath.FromSlash(id))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("document ID %q escapes the vault", id)
	}
	return filepath.Join(s.Path, clean), nil
}

// replaceFile swaps the note in one rename so readers never see a partial write.
// The temp file lives next to the target to keep the rename on one filesystem.
func replaceFile(filename string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(filename), TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}
