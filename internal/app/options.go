package app

import (
	"plinth/internal/domain/schema"
	"plinth/internal/gateway"
	"plinth/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store.
func WithStore(store gateway.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCollections registers the collections the service manages.
func WithCollections(cols ...schema.Collection) Option {
	return func(s *Service) {
		for _, c := range cols {
			s.collections[c.Name] = c
		}
	}
}

// WithListLimit caps how many records List may return per call.
func WithListLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.listLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}
