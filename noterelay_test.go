package noterelay_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	noterelay "github.com/bak-libra26/note-relay"
	"github.com/bak-libra26/note-relay/pkg/adapters/memory"
	"github.com/bak-libra26/note-relay/pkg/devrelay"
)

func TestRelay_WatchSyncsChangedNotes(t *testing.T) {
	relay := devrelay.New(devrelay.Config{Endpoint: "/api/notes"})
	srv := httptest.NewServer(relay)
	defer srv.Close()

	vault := t.TempDir()
	cfg := noterelay.DefaultConfig()
	cfg.ServerURL = srv.URL
	cfg.Endpoint = "/api/notes"
	cfg.AutoSync = true

	r, err := noterelay.New(vault, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, 20*time.Millisecond) }()

	// The watcher registers asynchronously; keep touching the note until a sync lands.
	path := filepath.Join(vault, "live.md")
	require.Eventually(t, func() bool {
		if len(relay.Records()) > 0 {
			return true
		}
		_ = os.WriteFile(path, []byte("# Live\n"), 0644)
		return false
	}, 5*time.Second, 100*time.Millisecond)

	var types []string
	for _, c := range r.Components() {
		types = append(types, c.ComponentType())
	}
	assert.Equal(t, []string{"syncer", "store", "watcher"}, types)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			assert.True(t, errors.Is(err, context.Canceled), "unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}

	rec := relay.Records()[0]
	assert.Equal(t, "# Live\n", rec.Content)
	assert.NotEmpty(t, rec.ID)
}

func TestRelay_WatchRequiresFilesystem(t *testing.T) {
	cfg := noterelay.DefaultConfig()
	r, err := noterelay.New("", cfg, noterelay.WithStore(memory.NewStore(nil)))
	require.NoError(t, err)

	err = r.Watch(context.Background(), 0)
	assert.ErrorContains(t, err, "filesystem vault")
	assert.Len(t, r.Components(), 1, "memory store and idle watcher are not listed")
}

func TestNew_MissingVault(t *testing.T) {
	_, err := noterelay.New(filepath.Join(t.TempDir(), "nope"), noterelay.DefaultConfig())
	assert.Error(t, err)
}
