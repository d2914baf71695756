// Package syncer runs the sync pipeline for single notes and for event streams.
//
// One sync is: validate config, check exclusion, get or create the
// identifier, read the note, build the payload, post it, reconcile the
// response and notify the operator. Every step failure becomes a
// core.Outcome; nothing escapes as a panic or an unhandled error.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"
	"golang.org/x/sync/errgroup"

	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/exclude"
	"github.com/bak-libra26/note-relay/pkg/identity"
	"github.com/bak-libra26/note-relay/pkg/payload"
	"github.com/bak-libra26/note-relay/pkg/reconcile"
	"github.com/bak-libra26/note-relay/pkg/relay"
)

// Notifier reports outcomes to the operator.
type Notifier interface {
	Notify(core.Outcome)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(core.Outcome)

// Notify implements Notifier.
func (f NotifierFunc) Notify(o core.Outcome) { f(o) }

// LogNotifier writes outcomes to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(o core.Outcome) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if !o.OK() {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, o.Message(),
		"id", o.DocumentID, "identifier", o.Identifier, "kind", o.Kind.String(), "status", o.Status)
}

// Config holds the collaborators of an Orchestrator.
type Config struct {
	Sync     core.SyncConfig
	Store    core.DocumentStore
	Doer     relay.Doer
	Notifier Notifier
	Logger   *slog.Logger
}

// Orchestrator composes the sync pipeline.
type Orchestrator struct {
	cfg        core.SyncConfig
	store      core.DocumentStore
	filter     *exclude.Filter
	ids        *identity.Manager
	builder    payload.Builder
	client     *relay.Client
	reconciler *reconcile.Reconciler
	notifier   Notifier
	logger     *slog.Logger

	wg sync.WaitGroup

	mu        sync.Mutex
	inflight  map[string]bool // document -> another sync requested while running
	stats     Stats
	lastEvent *core.Event
}

// Stats counts finished operations.
type Stats struct {
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Excluded  int `json:"excluded"`
	Coalesced int `json:"coalesced"`
}

// New creates an Orchestrator. The sync configuration is normalized and
// copied; later changes to the caller's value have no effect.
func New(config Config) *Orchestrator {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := config.Sync.Normalized()

	filter, err := exclude.New(cfg.ExcludePatterns)
	if err != nil {
		logger.Warn("ignoring invalid exclusion patterns", "error", err)
	}

	notifier := config.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}

	o := &Orchestrator{
		cfg:      cfg,
		store:    config.Store,
		filter:   filter,
		ids:      identity.New(config.Store, identity.WithLogger(logger)),
		client:   relay.NewClient(cfg, relay.WithDoer(config.Doer), relay.WithLogger(logger)),
		notifier: notifier,
		logger:   logger,
		inflight: make(map[string]bool),
	}
	if loc, ok := config.Store.(core.Locator); ok {
		o.builder.Locator = loc
	}
	o.reconciler = reconcile.New(o.ids, logger)
	return o
}

// Config returns the snapshot the orchestrator works with.
func (o *Orchestrator) Config() core.SyncConfig {
	return o.cfg.Normalized()
}

// SyncOne uploads one note and reconciles the response.
func (o *Orchestrator) SyncOne(ctx context.Context, docID string) core.Outcome {
	out := o.syncOne(ctx, docID)
	o.finish(out)
	return out
}

func (o *Orchestrator) syncOne(ctx context.Context, docID string) core.Outcome {
	out := core.Outcome{DocumentID: docID}

	if err := o.cfg.Validate(); err != nil {
		return fail(out, err)
	}
	if o.filter.Match(docID) {
		out.Kind = core.KindExcluded
		out.Err = core.ErrExcluded
		return out
	}

	id, err := o.ids.GetOrCreate(ctx, docID, o.cfg.IdentifierField)
	out.Identifier = id.Identifier
	out.Generated = id.Generated
	if err != nil {
		return fail(out, err)
	}

	text, err := o.store.Read(ctx, docID)
	if err != nil {
		return fail(out, err)
	}
	p, err := o.builder.Build(core.Document{ID: docID, Text: text}, id.Identifier, o.cfg)
	if err != nil {
		return fail(out, err)
	}

	target := relay.BuildURL(o.cfg.ServerURL, o.cfg.Endpoint, p.Identifier)
	resp, err := o.client.Send(ctx, target, p, relay.AuthHeaders(o.cfg.Auth))
	if err != nil {
		return fail(out, err)
	}
	out.Status = resp.Status
	if !resp.OK() {
		return fail(out, fmt.Errorf("%w: status %d", core.ErrServerRejected, resp.Status))
	}

	rec, err := o.reconciler.Reconcile(ctx, resp, docID, o.cfg.IdentifierField, o.cfg.AcceptServerID)
	if err != nil {
		return fail(out, err)
	}
	if rec.Skipped {
		o.logger.Debug("relay response not reconciled", "id", docID, "reason", rec.Reason)
		out.Kind = core.KindResponseUnparseable
		out.Err = rec.Err()
		return out
	}
	if rec.Updated {
		out.Identifier = rec.Identifier
		out.Reconciled = true
	}
	out.Kind = core.KindOK
	return out
}

// EnsureIdentifier gets or creates the note's identifier without uploading.
// Excluded notes are left untouched.
func (o *Orchestrator) EnsureIdentifier(ctx context.Context, docID string) core.Outcome {
	out := core.Outcome{DocumentID: docID}
	if o.filter.Match(docID) {
		out.Kind = core.KindExcluded
		out.Err = core.ErrExcluded
		o.finish(out)
		return out
	}
	id, err := o.ids.GetOrCreate(ctx, docID, o.cfg.IdentifierField)
	out.Identifier = id.Identifier
	out.Generated = id.Generated
	switch {
	case err != nil:
		out = fail(out, err)
	case !id.Persisted:
		out = fail(out, id.MetadataErr)
	default:
		out.Kind = core.KindOK
	}
	o.finish(out)
	return out
}

// Excluded reports whether docID matches an exclusion pattern.
func (o *Orchestrator) Excluded(docID string) bool {
	return o.filter.Match(docID)
}

// Handle dispatches a sync for a change event when auto sync is enabled and
// the note is eligible. It reports whether a sync was scheduled.
func (o *Orchestrator) Handle(ctx context.Context, e core.Event) bool {
	o.mu.Lock()
	o.lastEvent = &e
	o.mu.Unlock()

	if !o.cfg.AutoSync || e.Type == core.EventDelete {
		return false
	}
	if !o.cfg.HasExtension(e.ID) {
		return false
	}
	if o.filter.Match(e.ID) {
		o.logger.Debug("event for excluded note", "id", e.ID)
		return false
	}
	o.dispatch(ctx, e.ID)
	return true
}

// dispatch starts a background sync unless one is already running for the
// note; in that case one follow-up sync is queued.
func (o *Orchestrator) dispatch(ctx context.Context, docID string) {
	o.mu.Lock()
	if _, running := o.inflight[docID]; running {
		o.inflight[docID] = true
		o.stats.Coalesced++
		o.mu.Unlock()
		return
	}
	o.inflight[docID] = false
	o.wg.Add(1)
	o.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer o.wg.Done()
		for {
			o.SyncOne(ctx, docID)

			o.mu.Lock()
			if o.inflight[docID] && ctx.Err() == nil {
				o.inflight[docID] = false
				o.mu.Unlock()
				continue
			}
			delete(o.inflight, docID)
			o.mu.Unlock()
			return nil
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		o.logger.Error("background sync failed", "id", docID, "error", err)
	}))
}

// Run feeds events into Handle until the channel closes or ctx is done,
// then waits for running syncs.
func (o *Orchestrator) Run(ctx context.Context, events <-chan core.Event) error {
	defer o.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			o.Handle(ctx, e)
		}
	}
}

// Wait blocks until every dispatched sync has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// SyncAll syncs ids with at most limit uploads in flight and returns the
// outcomes in the order of ids. Use Eligible to pick the ids.
func (o *Orchestrator) SyncAll(ctx context.Context, ids []string, limit int) []core.Outcome {
	outcomes := make([]core.Outcome, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			outcomes[i] = o.SyncOne(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Eligible lists the store's notes that have a configured extension and are
// not excluded. The store must implement core.Lister.
func (o *Orchestrator) Eligible(ctx context.Context) ([]string, error) {
	lister, ok := o.store.(core.Lister)
	if !ok {
		return nil, fmt.Errorf("store cannot list documents")
	}
	all, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, id := range all {
		if o.cfg.HasExtension(id) && !o.filter.Match(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (o *Orchestrator) finish(out core.Outcome) {
	o.mu.Lock()
	switch {
	case out.Kind == core.KindExcluded:
		o.stats.Excluded++
	case out.OK():
		o.stats.Synced++
	default:
		o.stats.Failed++
	}
	o.mu.Unlock()

	o.notifier.Notify(out)
}

func fail(out core.Outcome, err error) core.Outcome {
	out.Kind = core.KindOf(err)
	out.Err = err
	return out
}
