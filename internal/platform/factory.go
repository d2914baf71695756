package platform

import (
	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/syncer"
)

// New opens the store and wires the sync pipeline around it.
//
//	orc, store, err := platform.New("./vault", cfg, platform.WithLogger(logger))
//
// The URI argument is adapter-specific (e.g., the vault path for 'fs').
func New(uri string, cfg core.SyncConfig, opts ...Option) (*syncer.Orchestrator, core.DocumentStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	store, err := openStore(uri, o)
	if err != nil {
		return nil, nil, err
	}

	orc := syncer.New(syncer.Config{
		Sync:     cfg,
		Store:    store,
		Doer:     o.doer,
		Notifier: o.notifier,
		Logger:   o.log(),
	})
	return orc, store, nil
}
