// Package memory provides a mutex-guarded in-memory Store. It backs tests
// and runs the server when no database URL is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"plinth/internal/gateway"
	"plinth/pkg/metrics"
)

// Store implements gateway.Store over per-collection maps. Records are
// copied on the way in and out, so callers never share map memory with
// the store. Each exported method mutates under one lock acquisition,
// which gives the per-call atomicity the Store contract requires.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]gateway.Record
	closed      bool
}

var _ gateway.Store = (*Store)(nil)

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]map[string]gateway.Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Find(ctx context.Context, collection, key string) (gateway.Record, error) {
	const op = "memory.find"
	defer observe(op, collection, time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return gateway.Record{}, gateway.NewKind(op, gateway.ErrTransient)
	}
	rec, ok := s.collections[collection][key]
	if !ok {
		metrics.RecordStoreError(op, "not_found")
		return gateway.Record{}, gateway.NewKind(op, gateway.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (s *Store) Insert(ctx context.Context, collection string, rec gateway.Record) error {
	const op = "memory.insert"
	defer observe(op, collection, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return gateway.NewKind(op, gateway.ErrTransient)
	}
	col := s.collections[collection]
	if col == nil {
		col = make(map[string]gateway.Record)
		s.collections[collection] = col
	}
	if _, exists := col[rec.Key]; exists {
		metrics.RecordStoreError(op, "conflict")
		return gateway.NewKind(op, gateway.ErrConflict)
	}
	col[rec.Key] = rec.Clone()
	return nil
}

func (s *Store) Update(ctx context.Context, collection, key string, patch map[string]any) (gateway.Record, error) {
	const op = "memory.update"
	defer observe(op, collection, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return gateway.Record{}, gateway.NewKind(op, gateway.ErrTransient)
	}
	col := s.collections[collection]
	rec, ok := col[key]
	if !ok {
		metrics.RecordStoreError(op, "not_found")
		return gateway.Record{}, gateway.NewKind(op, gateway.ErrNotFound)
	}
	next := rec.Clone()
	for k, v := range patch {
		next.Fields[k] = v
	}
	col[key] = next
	return next.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	const op = "memory.delete"
	defer observe(op, collection, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return gateway.NewKind(op, gateway.ErrTransient)
	}
	// Absent keys are fine: delete is idempotent.
	delete(s.collections[collection], key)
	return nil
}

func (s *Store) List(ctx context.Context, collection string, limit int) ([]gateway.Record, error) {
	const op = "memory.list"
	defer observe(op, collection, time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, gateway.NewKind(op, gateway.ErrTransient)
	}
	col := s.collections[collection]
	keys := make([]string, 0, len(col))
	for k := range col {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if limit > 0 && limit < len(keys) {
		keys = keys[:limit]
	}
	out := make([]gateway.Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, col[k].Clone())
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return gateway.NewKind("memory.ping", gateway.ErrTransient)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len reports the number of records in a collection.
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func observe(op, collection string, start time.Time) {
	metrics.RecordStoreOp(op, collection)
	metrics.RecordStoreOpDuration(op, time.Since(start).Seconds())
}
