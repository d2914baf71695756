package noterelay

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/introspection"

	"github.com/bak-libra26/note-relay/internal/platform"
	"github.com/bak-libra26/note-relay/pkg/adapters/fs"
	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/relay"
	"github.com/bak-libra26/note-relay/pkg/syncer"
)

// Version is the release of the module.
const Version = "0.3.0"

// --- Types ---

// Config is the sync settings snapshot.
type Config = core.SyncConfig

// Outcome is the result of one sync or identifier operation.
type Outcome = core.Outcome

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return core.DefaultSyncConfig()
}

// --- Configuration ---

// Option defines a functional option for configuring the relay.
type Option = platform.Option

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore injects a custom document store.
func WithStore(store core.DocumentStore) Option {
	return platform.WithStore(store)
}

// WithAdapter selects the storage adapter by name ("fs" or "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithHTTPClient replaces the HTTP client used to reach the relay server.
func WithHTTPClient(doer relay.Doer) Option {
	return platform.WithHTTPClient(doer)
}

// WithNotifier receives every sync outcome.
func WithNotifier(n syncer.Notifier) Option {
	return platform.WithNotifier(n)
}

// WithSkipDirs sets the directories the vault scan and watcher ignore.
func WithSkipDirs(dirs ...string) Option {
	return platform.WithSkipDirs(dirs...)
}

// WithDocuments seeds the memory adapter.
func WithDocuments(docs map[string]string) Option {
	return platform.WithDocuments(docs)
}

// --- Factory ---

// Relay is a sync orchestrator bound to its document store.
type Relay struct {
	*syncer.Orchestrator
	Store core.DocumentStore

	watcher atomic.Pointer[fs.Watcher]
}

// Component is an observable part of the relay.
type Component interface {
	introspection.Introspectable
	introspection.Component
}

// New opens the vault at path and wires the sync pipeline for cfg.
func New(path string, cfg Config, opts ...Option) (*Relay, error) {
	orc, store, err := platform.New(path, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Relay{Orchestrator: orc, Store: store}, nil
}

// Watch feeds filesystem changes of the vault into the orchestrator until
// ctx is done. Syncs only run when the configuration enables auto sync.
// A zero debounce uses fs.DefaultDebounce.
func (r *Relay) Watch(ctx context.Context, debounce time.Duration) error {
	store, ok := r.Store.(*fs.Store)
	if !ok {
		return fmt.Errorf("watch requires a filesystem vault, got %T", r.Store)
	}
	w := fs.NewWatcher(store, "", debounce)
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	r.watcher.Store(w)
	return r.Run(ctx, events)
}

// Components returns the orchestrator, the store when it is observable and,
// once Watch has started, the watcher.
func (r *Relay) Components() []Component {
	out := []Component{r.Orchestrator}
	if c, ok := r.Store.(Component); ok {
		out = append(out, c)
	}
	if w := r.watcher.Load(); w != nil {
		out = append(out, w)
	}
	return out
}
