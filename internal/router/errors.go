package router

import "errors"

// Sentinel kinds for routing errors.
var (
	ErrRouteConflict = errors.New("route already registered")
	ErrBadPattern    = errors.New("malformed route pattern")
)
