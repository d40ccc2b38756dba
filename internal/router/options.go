package router

import "plinth/pkg/logger"

// Option applies a configuration option to the Router.
type Option func(*Router)

// WithLogger sets the logger used for handler failures.
func WithLogger(log logger.Logger) Option {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMaxBodyBytes bounds how much of a request body ServeHTTP reads.
func WithMaxBodyBytes(n int64) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxBodyBytes = n
		}
	}
}
