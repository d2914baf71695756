package platform

import (
	"log/slog"

	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/relay"
	"github.com/bak-libra26/note-relay/pkg/syncer"
)

// options holds the internal configuration for the engine.
type options struct {
	store    core.DocumentStore
	logger   *slog.Logger
	adapter  string
	doer     relay.Doer
	notifier syncer.Notifier
	skipDirs []string
	docs     map[string]string
}

// Option defines a functional option for configuring the engine.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
	}
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore injects a custom document store (e.g. a mock).
// If provided, the adapter selected by WithAdapter is skipped.
func WithStore(store core.DocumentStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter selects the storage adapter by name ("fs" or "memory").
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithHTTPClient replaces the HTTP client used to reach the relay.
func WithHTTPClient(doer relay.Doer) Option {
	return func(o *options) {
		o.doer = doer
	}
}

// WithNotifier receives every sync outcome. Defaults to logging them.
func WithNotifier(n syncer.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithSkipDirs sets the directory names the fs adapter never lists or watches.
func WithSkipDirs(dirs ...string) Option {
	return func(o *options) {
		o.skipDirs = dirs
	}
}

// WithDocuments seeds the memory adapter.
func WithDocuments(docs map[string]string) Option {
	return func(o *options) {
		o.docs = docs
	}
}

func (o *options) log() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}
