package syncer

import (
	"sort"

	"github.com/aretw0/introspection"

	"github.com/bak-libra26/note-relay/pkg/core"
)

// State exposes internal state for observability.
type State struct {
	Server    string      `json:"server"`
	Endpoint  string      `json:"endpoint"`
	Mode      string      `json:"mode"`
	AutoSync  bool        `json:"auto_sync"`
	InFlight  []string    `json:"in_flight"`
	Stats     Stats       `json:"stats"`
	LastEvent *core.Event `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (o *Orchestrator) State() any {
	o.mu.Lock()
	defer o.mu.Unlock()

	inflight := make([]string, 0, len(o.inflight))
	for id := range o.inflight {
		inflight = append(inflight, id)
	}
	sort.Strings(inflight)

	var last *core.Event
	if o.lastEvent != nil {
		e := *o.lastEvent
		last = &e
	}

	return State{
		Server:    o.cfg.ServerURL,
		Endpoint:  o.cfg.Endpoint,
		Mode:      string(o.cfg.Mode),
		AutoSync:  o.cfg.AutoSync,
		InFlight:  inflight,
		Stats:     o.stats,
		LastEvent: last,
	}
}

// ComponentType implements introspection.Component.
func (o *Orchestrator) ComponentType() string {
	return "syncer"
}

var _ introspection.Introspectable = (*Orchestrator)(nil)
var _ introspection.Component = (*Orchestrator)(nil)
