// Package core holds the domain types shared by every note-relay component.
package core

import "time"

// Document is a managed note as stored by the host.
// ID is the vault-relative, slash-separated path (e.g. "notes/today.md").
type Document struct {
	ID   string
	Text string
}

// Name returns the base name of the document (e.g. "today.md").
func (d Document) Name() string {
	for i := len(d.ID) - 1; i >= 0; i-- {
		if d.ID[i] == '/' {
			return d.ID[i+1:]
		}
	}
	return d.ID
}

// EventType represents the type of change in the vault.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the vault.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// DocumentChanged builds the modify event the orchestrator reacts to.
func DocumentChanged(id string) Event {
	return Event{Type: EventModify, ID: id, Timestamp: time.Now().Unix()}
}

func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}
