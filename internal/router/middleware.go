package router

import (
	"context"
	"time"

	"plinth/pkg/logger"
)

// Middleware wraps a Handler. Middleware added via Use applies to every
// route registered after the call, outermost first.
type Middleware func(Handler) Handler

// AccessLog logs one line per handled request.
func AccessLog(log logger.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			status := 0
			if resp != nil {
				status = resp.Status
			}
			log.Info(ctx, "request",
				logger.String("method", req.Method),
				logger.String("path", req.Path),
				logger.Int("status", status),
				logger.Any("duration", time.Since(start)))
			return resp, err
		}
	}
}
