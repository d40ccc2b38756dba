// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"plinth/internal/domain/schema"
	"plinth/internal/gateway"
	"plinth/internal/router"
)

// Dependencies bundles what the handlers need from the service layer.
// An interface keeps this package decoupled from internal/app.
type Dependencies interface {
	Collections() []schema.Collection

	Find(ctx context.Context, collection, key string) (gateway.Record, error)
	Create(ctx context.Context, collection string, rec gateway.Record) (gateway.Record, error)
	Update(ctx context.Context, collection, key string, patch map[string]any) (gateway.Record, error)
	Delete(ctx context.Context, collection, key string) error
	List(ctx context.Context, collection string, limit int) ([]gateway.Record, error)

	Ping(ctx context.Context) error
	Stats() map[string]any
}

// Server wires HTTP routes for the resource API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	deps          Dependencies
}

// NewServer creates an API server over deps.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(deps),
		statsHandler:  NewStatsHandler(deps),
		deps:          deps,
	}
}

// Register attaches all routes to r: health, metrics and stats endpoints
// plus the CRUD surface of every registered collection.
func (s *Server) Register(ctx context.Context, r *router.Router) error {
	if err := r.Register(http.MethodGet, "/healthz", s.healthHandler.HandleHealth); err != nil {
		return err
	}
	if err := r.Register(http.MethodGet, "/metrics", HandleMetrics); err != nil {
		return err
	}
	if err := r.Register(http.MethodGet, "/stats", s.statsHandler.HandleStats); err != nil {
		return err
	}
	for _, c := range s.deps.Collections() {
		h := NewResourceHandler(s.deps, c)
		base := "/" + c.Name
		keyed := base + "/{" + c.Key + "}"
		for _, route := range []struct {
			method, pattern string
			handler         router.Handler
		}{
			{http.MethodPost, base, h.HandleCreate},
			{http.MethodGet, base, h.HandleList},
			{http.MethodGet, keyed, h.HandleGet},
			{http.MethodPut, keyed, h.HandleUpdate},
			{http.MethodDelete, keyed, h.HandleDelete},
		} {
			if err := r.Register(route.method, route.pattern, route.handler); err != nil {
				return err
			}
		}
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps a gateway error kind to a status and a stable body.
// Validation messages are surfaced verbatim (they describe the caller's
// input); everything else gets the generic status text.
func respondError(err error) *router.Response {
	kind := gateway.Kind(err)
	status := statusFor(kind)
	msg := http.StatusText(status)
	if errors.Is(kind, gateway.ErrValidation) {
		msg = err.Error()
	}
	return router.JSON(status, errorResponse{Code: codeFor(kind), Message: msg})
}

func statusFor(kind error) int {
	switch kind {
	case gateway.ErrNotFound:
		return http.StatusNotFound
	case gateway.ErrConflict:
		return http.StatusConflict
	case gateway.ErrValidation:
		return http.StatusBadRequest
	case gateway.ErrTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(kind error) string {
	switch kind {
	case gateway.ErrNotFound:
		return "not_found"
	case gateway.ErrConflict:
		return "conflict"
	case gateway.ErrValidation:
		return "bad_request"
	case gateway.ErrTransient:
		return "unavailable"
	default:
		return "internal_error"
	}
}
