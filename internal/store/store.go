// Package store holds the persistence adapters used by the services: a
// per-user document store for progress and routine documents, and a
// device-local key-value store for reminders.
package store

import "context"

const (
	CollectionProgress = "progress"
	CollectionRoutines = "routines"
)

// DocumentStore reads and writes whole JSON-shaped documents keyed by
// collection and id. Writes replace the full document; concurrent writers
// race with last-writer-wins semantics.
type DocumentStore interface {
	// Get decodes the document into dst. It reports false with a nil error
	// when the document does not exist.
	Get(ctx context.Context, collection, id string, dst any) (bool, error)
	Set(ctx context.Context, collection, id string, doc any) error
	Ping(ctx context.Context) error
}

// KeyValueStore is durable string storage scoped to one device.
type KeyValueStore interface {
	Read(ctx context.Context, key string) (string, bool, error)
	Write(ctx context.Context, key, value string) error
	// Keys lists the stored keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
