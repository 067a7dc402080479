package core

import "time"

// Change operations
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
	// OpResync tells subscribers that events may have been missed; refetch everything.
	OpResync = "RESYNC"
)

// ChangeEvent notifies that a row of Table has changed.
type ChangeEvent struct {
	Table string    `json:"table"`
	Op    string    `json:"op"`
	ID    string    `json:"id,omitempty"`
	At    time.Time `json:"at"`
}

// ChangeNotifier fans out ChangeEvents to subscribers.
// No ordering nor deduplication guarantees: subscribers are expected to refetch on any event.
type ChangeNotifier interface {
	Publish(ev ChangeEvent)
	// Subscribe returns a channel of events for the given tables (all tables if none)
	// and a function to call to unsubscribe.
	Subscribe(tables ...string) (<-chan ChangeEvent, func())
}
