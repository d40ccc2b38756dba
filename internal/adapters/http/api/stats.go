package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plinth/internal/router"
	"plinth/pkg/metrics"
)

// StatsHandler exposes service counters as JSON.
type StatsHandler struct {
	deps Dependencies
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(deps Dependencies) *StatsHandler {
	return &StatsHandler{deps: deps}
}

// HandleStats handles GET /stats.
func (h *StatsHandler) HandleStats(ctx context.Context, req *router.Request) (*router.Response, error) {
	return router.JSON(http.StatusOK, h.deps.Stats()), nil
}

// HandleMetrics handles GET /metrics in the Prometheus text format.
// promhttp speaks net/http, so the exposition is captured into a buffer
// and re-emitted as a router Response.
func HandleMetrics(ctx context.Context, req *router.Request) (*router.Response, error) {
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, "/metrics", nil)
	if err != nil {
		return nil, err
	}
	buf := &bufferWriter{status: http.StatusOK, header: make(http.Header)}
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(buf, hr)

	resp := &router.Response{Status: buf.status, Body: buf.body.Bytes()}
	for _, key := range []string{"Content-Type", "Content-Encoding"} {
		if v := buf.header.Get(key); v != "" {
			resp.Header.Set(key, v)
		}
	}
	return resp, nil
}

// bufferWriter is a minimal http.ResponseWriter collecting into memory.
type bufferWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func (b *bufferWriter) Header() http.Header { return b.header }

func (b *bufferWriter) WriteHeader(status int) { b.status = status }

func (b *bufferWriter) Write(p []byte) (int, error) { return b.body.Write(p) }
