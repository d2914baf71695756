package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bak-libra26/note-relay/pkg/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Config{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestStore_ReadWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, "notes/daily/today.md", "hello"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := s.Read(ctx, "notes/daily/today.md")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("Read() = %q, want %q", got, "hello")
	}

	if err := s.Write(ctx, "notes/daily/today.md", "overwritten"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, _ = s.Read(ctx, "notes/daily/today.md")
	if got != "overwritten" {
		t.Errorf("Read() = %q, want %q", got, "overwritten")
	}

	entries, err := os.ReadDir(filepath.Join(s.Path, "notes", "daily"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), TempFilePrefix) {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStore_ReadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Read(context.Background(), "nope.md")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_WriteKeepsPermissions(t *testing.T) {
	s := newTestStore(t)
	full := filepath.Join(s.Path, "secret.md")
	if err := os.WriteFile(full, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(context.Background(), "secret.md", "y"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(full)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions changed to %v", info.Mode().Perm())
	}
}

func TestStore_RejectsEscapes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"../outside.md", "", "a/../../b.md"} {
		if err := s.Write(ctx, id, "x"); err == nil {
			t.Errorf("Write(%q) should fail", id)
		}
	}
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"b.md", "a/c.md", ".obsidian/workspace.json", ".git/HEAD"} {
		full := filepath.Join(s.Path, filepath.FromSlash(id))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"a/c.md", "b.md"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("List() = %v, want %v", ids, want)
	}
}

func TestStore_Echo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if s.Echo("a.md") {
		t.Error("unknown note cannot be an echo")
	}
	if err := s.Write(ctx, "a.md", "ours"); err != nil {
		t.Fatal(err)
	}
	if !s.Echo("a.md") {
		t.Error("expected our own write to be recognised")
	}
	if err := os.WriteFile(filepath.Join(s.Path, "a.md"), []byte("user edit"), 0644); err != nil {
		t.Fatal(err)
	}
	if s.Echo("a.md") {
		t.Error("user edit must not be treated as an echo")
	}
}

func TestStore_AbsPathAndID(t *testing.T) {
	s := newTestStore(t)

	abs, ok := s.AbsPath("notes/x.md")
	if !ok {
		t.Fatal("AbsPath failed")
	}
	if abs != filepath.Join(s.Path, "notes", "x.md") {
		t.Errorf("AbsPath() = %q", abs)
	}

	id, err := s.ID(abs)
	if err != nil {
		t.Fatal(err)
	}
	if id != "notes/x.md" {
		t.Errorf("ID() = %q", id)
	}

	if _, err := s.ID(filepath.Dir(s.Path)); err == nil {
		t.Error("expected error for path outside vault")
	}
}

func TestReplaceFile_FailsIfDirectoryMissing(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "missing_folder", "test.txt")
	if err := replaceFile(filename, []byte("fail"), 0644); err == nil {
		t.Error("Expected error when directory is missing, got nil")
	}
}

func TestNewStore_MissingPath(t *testing.T) {
	if _, err := NewStore(Config{Path: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("expected error for missing vault")
	}
}
