package postgres

import (
	"time"

	"plinth/internal/domain/schema"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithCollections registers the collections the store may be asked about.
func WithCollections(cols ...schema.Collection) Option {
	return func(s *Store) {
		for _, c := range cols {
			s.collections[c.Name] = c
		}
	}
}

// WithMaxConns bounds the connection pool size.
func WithMaxConns(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxConns = int32(n)
		}
	}
}

// WithAcquireTimeout bounds how long one operation may wait for a pooled
// connection (plus the statement itself). Zero disables the bound.
func WithAcquireTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.acquireTimeout = d
	}
}
