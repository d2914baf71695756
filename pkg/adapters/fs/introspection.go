package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path     string   `json:"path"`
	SkipDirs []string `json:"skip_dirs"`
	Writes   int      `json:"writes"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:     s.Path,
		SkipDirs: append([]string(nil), s.config.SkipDirs...),
		Writes:   s.writes,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

// WatcherState exposes the watcher's counters.
type WatcherState struct {
	Active    bool       `json:"active"`
	Pattern   string     `json:"pattern"`
	Emitted   int        `json:"emitted"`
	Echoes    int        `json:"echoes_dropped"`
	LastEvent *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (w *Watcher) State() any {
	w.mu.Lock()
	defer w.mu.Unlock()

	return WatcherState{
		Active:    w.active,
		Pattern:   w.pattern,
		Emitted:   w.emitted,
		Echoes:    w.echoes,
		LastEvent: w.lastSeen,
	}
}

// ComponentType implements introspection.Component.
func (w *Watcher) ComponentType() string {
	return "watcher"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
var _ introspection.Introspectable = (*Watcher)(nil)
var _ introspection.Component = (*Watcher)(nil)
