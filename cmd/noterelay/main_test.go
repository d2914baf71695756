package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bak-libra26/note-relay/pkg/devrelay"
	"github.com/bak-libra26/note-relay/pkg/frontmatter"
)

// runCLI executes the root command in-process and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	// Flag values outlive a single Execute; start every run from the defaults.
	syncAll, syncConcurrency = false, 4
	configFile, logFile, envFiles = "", "", nil
	for _, name := range []string{"vault", "server-url", "endpoint"} {
		f := rootCmd.PersistentFlags().Lookup(name)
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeNote(t *testing.T, dir, id, text string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(id))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
}

func readIdentifier(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	note, err := frontmatter.Parse(string(data))
	require.NoError(t, err)
	return note.Metadata.Lookup("file_id")
}

func TestVersion(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "noterelay version "), out)
}

func TestSyncAll(t *testing.T) {
	relay := devrelay.New(devrelay.Config{Endpoint: "/api/notes"})
	srv := httptest.NewServer(relay)
	defer srv.Close()

	vault := t.TempDir()
	t.Chdir(t.TempDir())
	writeNote(t, vault, "a.md", "# A\n")
	writeNote(t, vault, "sub/b.md", "---\nfile_id: fixed\n---\n# B\n")
	writeNote(t, vault, "image.png", "png")

	out, _, err := runCLI(t, "sync", "--all",
		"--vault", vault, "--server-url", srv.URL, "--endpoint", "/api/notes")
	require.NoError(t, err)
	assert.Contains(t, out, "a.md: synced")
	assert.Contains(t, out, "sub/b.md: synced (identifier fixed)")
	assert.NotContains(t, out, "image.png")

	id := readIdentifier(t, filepath.Join(vault, "a.md"))
	require.NotEmpty(t, id)
	_, ok := relay.Get(id)
	assert.True(t, ok, "relay should hold a.md under its identifier")
	assert.Len(t, relay.Records(), 2)
}

func TestSync_RequiresNotes(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := runCLI(t, "sync")
	assert.ErrorContains(t, err, "no notes given")
}

func TestSync_ConfigIncomplete(t *testing.T) {
	vault := t.TempDir()
	t.Chdir(vault)
	writeNote(t, vault, "a.md", "# A\n")

	out, stderr, err := runCLI(t, "sync", "a.md", "--vault", vault)
	assert.ErrorContains(t, err, "1 of 1 notes failed")
	assert.Contains(t, out, "server information is not configured")
	assert.Contains(t, stderr, "Tip:")

	data, err := os.ReadFile(filepath.Join(vault, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "# A\n", string(data), "note must stay untouched when sync is not configured")
}

func TestID_Idempotent(t *testing.T) {
	vault := t.TempDir()
	t.Chdir(vault)
	writeNote(t, vault, "note.md", "---\ntitle: T\n---\nbody\n")

	first, _, err := runCLI(t, "id", "note.md", "--vault", vault)
	require.NoError(t, err)
	second, _, err := runCLI(t, "id", "note.md", "--vault", vault)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, strings.TrimSpace(first), 36)
	assert.Equal(t, strings.TrimSpace(first), readIdentifier(t, filepath.Join(vault, "note.md")))
}

func TestCheck_UsesVaultConfig(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "noterelay.yaml", strings.Join([]string{
		"server_url: http://relay.local",
		"sync_endpoint: /api/notes",
		"exclude_patterns:",
		"  - templates/**",
		"",
	}, "\n"))
	writeNote(t, vault, "note.md", "# N\n")
	writeNote(t, vault, "templates/daily.md", "{{date}}\n")
	t.Chdir(vault)

	out, _, err := runCLI(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "config: ok (http://relay.local/api/notes, json)")
	assert.Contains(t, out, "sync     note.md")
	assert.Contains(t, out, "excluded templates/daily.md")
	assert.Contains(t, out, "skip     noterelay.yaml")
}

func TestStatus(t *testing.T) {
	vault := t.TempDir()
	t.Chdir(vault)
	writeNote(t, vault, "note.md", "# N\n")

	out, _, err := runCLI(t, "status", "--vault", vault,
		"--server-url", "http://relay.local", "--endpoint", "/api/notes")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "syncer "), lines[0])
	assert.Contains(t, lines[0], `"server":"http://relay.local"`)
	assert.Contains(t, lines[0], `"stats":`)
	assert.True(t, strings.HasPrefix(lines[1], "store "), lines[1])
	assert.Contains(t, lines[1], `"writes":0`)
}
