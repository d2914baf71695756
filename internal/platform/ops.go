package platform

import (
	"fmt"

	"github.com/bak-libra26/note-relay/pkg/adapters/fs"
	"github.com/bak-libra26/note-relay/pkg/adapters/memory"
	"github.com/bak-libra26/note-relay/pkg/core"
)

// OpenStore returns the document store selected by the options.
// The uri argument is adapter-specific (the vault directory for "fs",
// ignored for "memory").
func OpenStore(uri string, opts ...Option) (core.DocumentStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return openStore(uri, o)
}

func openStore(uri string, o *options) (core.DocumentStore, error) {
	if o.store != nil {
		return o.store, nil
	}

	switch o.adapter {
	case "fs":
		return initFS(uri, o)
	case "memory":
		return memory.NewStore(o.docs), nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// initFS resolves the vault directory and opens the filesystem store.
func initFS(path string, o *options) (*fs.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("vault path is required")
	}
	return fs.NewStore(fs.Config{
		Path:     path,
		Logger:   o.log(),
		SkipDirs: o.skipDirs,
	})
}
