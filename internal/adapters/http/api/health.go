package api

import (
	"context"
	"net/http"

	"plinth/internal/router"
)

// HealthHandler reports process and store health.
type HealthHandler struct {
	deps Dependencies
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(deps Dependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleHealth handles GET /healthz. The store is pinged on every call;
// an unreachable store degrades the answer to 503 rather than failing
// the process.
func (h *HealthHandler) HandleHealth(ctx context.Context, req *router.Request) (*router.Response, error) {
	if err := h.deps.Ping(ctx); err != nil {
		return router.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  "unreachable",
		}), nil
	}
	return router.JSON(http.StatusOK, map[string]string{"status": "ok"}), nil
}
