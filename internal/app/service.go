// Package app provides the service tying collection schemas to the store.
// It validates writes, assigns keys, and implements the dependencies the
// HTTP handlers need.
package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"plinth/internal/domain/schema"
	"plinth/internal/gateway"
	"plinth/pkg/logger"
)

const defaultListLimit = 100

// Service coordinates validation and persistence for all collections.
type Service struct {
	mu sync.Mutex

	store       gateway.Store
	collections map[string]schema.Collection
	listLimit   int
	log         logger.Logger

	started bool

	reads  atomic.Int64
	writes atomic.Int64
	faults atomic.Int64
}

// New constructs a Service. A store must be supplied via WithStore before
// Start.
func New(opts ...Option) *Service {
	s := &Service{
		collections: make(map[string]schema.Collection),
		listLimit:   defaultListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start checks wiring and pings the store once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.store == nil {
		return fmt.Errorf("app: no store configured")
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("app: store ping: %w", err)
	}
	s.started = true
	s.log.Info(ctx, "service started", logger.Int("collections", len(s.collections)))
	return nil
}

// Stop closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	return s.store.Close(ctx)
}

// Collections returns the registered collection schemas, name ascending.
func (s *Service) Collections() []schema.Collection {
	out := make([]schema.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Service) collection(name string) (schema.Collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return schema.Collection{}, gateway.WrapKind("app", gateway.ErrNotFound,
			fmt.Errorf("unknown collection %q", name))
	}
	return c, nil
}

// Find returns one record.
func (s *Service) Find(ctx context.Context, collection, key string) (gateway.Record, error) {
	if _, err := s.collection(collection); err != nil {
		return gateway.Record{}, err
	}
	rec, err := s.store.Find(ctx, collection, key)
	s.count(err, &s.reads)
	return rec, err
}

// Create validates rec against the collection schema and inserts it.
// An empty key gets a server-assigned UUID.
func (s *Service) Create(ctx context.Context, collection string, rec gateway.Record) (gateway.Record, error) {
	c, err := s.collection(collection)
	if err != nil {
		return gateway.Record{}, err
	}
	if rec.Key == "" {
		rec.Key = uuid.NewString()
	}
	if err := c.Validate(rec); err != nil {
		s.faults.Add(1)
		return gateway.Record{}, err
	}
	err = s.store.Insert(ctx, collection, rec)
	s.count(err, &s.writes)
	if err != nil {
		return gateway.Record{}, err
	}
	return rec, nil
}

// Update patches an existing record's fields.
func (s *Service) Update(ctx context.Context, collection, key string, patch map[string]any) (gateway.Record, error) {
	c, err := s.collection(collection)
	if err != nil {
		return gateway.Record{}, err
	}
	if err := c.ValidatePatch(patch); err != nil {
		s.faults.Add(1)
		return gateway.Record{}, err
	}
	rec, err := s.store.Update(ctx, collection, key, patch)
	s.count(err, &s.writes)
	return rec, err
}

// Delete removes a record; absent keys are not an error.
func (s *Service) Delete(ctx context.Context, collection, key string) error {
	if _, err := s.collection(collection); err != nil {
		return err
	}
	err := s.store.Delete(ctx, collection, key)
	s.count(err, &s.writes)
	return err
}

// List returns up to the configured limit of records, key ascending.
func (s *Service) List(ctx context.Context, collection string, limit int) ([]gateway.Record, error) {
	if _, err := s.collection(collection); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}
	recs, err := s.store.List(ctx, collection, limit)
	s.count(err, &s.reads)
	return recs, err
}

// Ping reports store reachability.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Stats returns service counters for the stats endpoint.
func (s *Service) Stats() map[string]any {
	return map[string]any{
		"collections": len(s.collections),
		"reads":       s.reads.Load(),
		"writes":      s.writes.Load(),
		"faults":      s.faults.Load(),
	}
}

func (s *Service) count(err error, ok *atomic.Int64) {
	if err != nil {
		s.faults.Add(1)
		return
	}
	ok.Add(1)
}
