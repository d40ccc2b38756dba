package memory

import "plinth/internal/gateway"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithSeed preloads records into a collection. Later seeds for the same
// key overwrite earlier ones.
func WithSeed(collection string, recs ...gateway.Record) Option {
	return func(s *Store) {
		col := s.collections[collection]
		if col == nil {
			col = make(map[string]gateway.Record)
			s.collections[collection] = col
		}
		for _, rec := range recs {
			col[rec.Key] = rec.Clone()
		}
	}
}
