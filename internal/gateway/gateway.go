// Package gateway defines the persistence contract between HTTP handlers
// and the backing store, together with the error taxonomy drivers must
// translate into. Implementations live under internal/adapters/repository.
package gateway

import "context"

// Record is a structured unit of persisted data. Key is the primary key
// within its collection and is immutable after creation; Fields holds the
// named attributes, excluding the key itself.
type Record struct {
	Key    string
	Fields map[string]any
}

// Clone returns a deep copy of one map level. Field values are assumed to
// be plain JSON scalars or already-copied composites.
func (r Record) Clone() Record {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{Key: r.Key, Fields: fields}
}

// Store provides CRUD access to collections of records. Every call is
// atomic: either all of its effects are visible afterwards or none.
// Implementations must be safe for concurrent use.
type Store interface {
	// Find returns the record for key, or ErrNotFound.
	Find(ctx context.Context, collection, key string) (Record, error)

	// Insert stores a new record. Returns ErrConflict if the key exists.
	Insert(ctx context.Context, collection string, rec Record) error

	// Update applies patch to an existing record's fields.
	// Returns ErrNotFound if the key is absent. The key itself cannot
	// be patched.
	Update(ctx context.Context, collection, key string, patch map[string]any) (Record, error)

	// Delete removes the record for key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, collection, key string) error

	// List returns up to limit records ordered by key ascending.
	List(ctx context.Context, collection string, limit int) ([]Record, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close(ctx context.Context) error
}
