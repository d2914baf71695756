package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/bak-libra26/note-relay/pkg/core"
)

// DefaultDebounce is how long a note must stay quiet before its event is emitted.
const DefaultDebounce = 250 * time.Millisecond

// Watcher turns filesystem notifications below a Store into core.Events.
type Watcher struct {
	store   *Store
	pattern string
	delay   time.Duration

	mu       sync.Mutex
	active   bool
	emitted  int
	echoes   int
	lastSeen *time.Time
}

// NewWatcher creates a watcher emitting events for IDs matching pattern
// (doublestar syntax, "" means every file).
func NewWatcher(store *Store, pattern string, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Watcher{store: store, pattern: pattern, delay: delay}
}

// Watch starts watching and returns the event channel. The channel is closed
// once ctx is done or the underlying watcher fails.
func (w *Watcher) Watch(ctx context.Context) (<-chan core.Event, error) {
	if w.pattern != "" && !doublestar.ValidatePattern(w.pattern) {
		return nil, fmt.Errorf("invalid watch pattern: %s", w.pattern)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.recursiveAdd(fw, w.store.Path); err != nil {
		_ = fw.Close()
		return nil, err
	}

	events := make(chan core.Event, 64)
	w.setActive(true)

	logger := w.store.config.Logger
	lifecycle.Go(ctx, func(ctx context.Context) error {
		deb := newDebouncer(w.delay)
		defer func() {
			deb.stopAndWait(5 * time.Second)
			_ = fw.Close()
			w.setActive(false)
			close(events)
		}()
		return w.loop(ctx, fw, deb, events)
	}, lifecycle.WithErrorHandler(func(err error) {
		logger.Error("watcher stopped", "error", err)
	}))

	return events, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, deb *debouncer, out chan<- core.Event) error {
	logger := w.store.config.Logger
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			w.handle(ctx, fw, deb, event, out)

		case err, ok := <-fw.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			logger.Error("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fw *fsnotify.Watcher, deb *debouncer, event fsnotify.Event, out chan<- core.Event) {
	logger := w.store.config.Logger
	logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if strings.HasPrefix(filepath.Base(event.Name), TempFilePrefix) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.store.skipDir(info.Name()) {
				if err := w.recursiveAdd(fw, event.Name); err != nil {
					logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}

	eType := mapEventType(event)
	if eType == "" {
		return
	}

	id, err := w.store.ID(event.Name)
	if err != nil {
		logger.Debug("event outside vault", "path", event.Name, "error", err)
		return
	}
	if w.pattern != "" {
		if ok, _ := doublestar.Match(w.pattern, id); !ok {
			return
		}
	}

	deb.add(id, func() {
		defer func() {
			// out may already be closed if shutdown timed out
			_ = recover()
		}()
		if eType != core.EventDelete && w.store.Echo(id) {
			w.record(true)
			logger.Debug("ignoring own write", "id", id)
			return
		}
		select {
		case out <- core.Event{Type: eType, ID: id, Timestamp: time.Now().Unix()}:
			w.record(false)
		case <-ctx.Done():
		}
	})
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

func (w *Watcher) recursiveAdd(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.store.Path && w.store.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) setActive(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = active
}

func (w *Watcher) record(echo bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	w.lastSeen = &now
	if echo {
		w.echoes++
	} else {
		w.emitted++
	}
}
