package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	noterelay "github.com/bak-libra26/note-relay"
	"github.com/bak-libra26/note-relay/internal/platform"
	"github.com/bak-libra26/note-relay/pkg/adapters/fs"
)

// openRelay builds the relay for the configured vault.
// An unset vault falls back to the nearest directory with a vault marker.
func openRelay() (*noterelay.Relay, *fs.Store, error) {
	vault := cfgViper.GetString(platform.KeyVault)
	if vault == "" || vault == "." {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, nil, err
		}
		vault = cwd
		if root, err := platform.FindRoot(cwd); err == nil {
			vault = root
		}
	}

	cfg := platform.SyncConfigFrom(cfgViper)
	r, err := noterelay.New(vault, cfg, noterelay.WithLogger(slog.Default()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open vault %s: %w", vault, err)
	}
	store, ok := r.Store.(*fs.Store)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected store %T", r.Store)
	}
	slog.Debug("vault opened", "path", store.Path)
	return r, store, nil
}

// noteIDs converts command line paths, relative to the working directory,
// into vault document IDs.
func noteIDs(store *fs.Store, paths []string) ([]string, error) {
	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		id, err := store.ID(abs)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
