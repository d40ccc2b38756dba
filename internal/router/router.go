// Package router maps HTTP method and path pairs to handlers. Patterns are
// slash-separated segments; a {name} segment matches any single segment and
// binds it as a path parameter. Static segments always win over parameter
// segments. Routes are registered once at startup and are immutable after.
package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"plinth/pkg/logger"
)

const defaultMaxBodyBytes = 1 << 20 // 1 MiB

// node is one segment in a method's pattern trie.
type node struct {
	children  map[string]*node
	param     *node
	paramName string

	// pattern and handler are set on terminal nodes only.
	pattern string
	handler Handler
}

// Router dispatches requests to registered handlers.
type Router struct {
	trees        map[string]*node
	log          logger.Logger
	maxBodyBytes int64
	middleware   []Middleware
}

// New creates an empty Router.
func New(opts ...Option) *Router {
	r := &Router{
		trees:        make(map[string]*node),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a route. It returns ErrRouteConflict if the same method and
// pattern pair was registered before, and ErrBadPattern for patterns that
// do not start with "/" or contain malformed parameter segments.
// Register is not safe for use concurrently with Dispatch; call it during
// startup only.
func (r *Router) Register(method, pattern string, h Handler) error {
	if h == nil {
		return fmt.Errorf("%w: nil handler for %s %s", ErrBadPattern, method, pattern)
	}
	segs, err := patternSegments(pattern)
	if err != nil {
		return err
	}

	root := r.trees[method]
	if root == nil {
		root = &node{}
		r.trees[method] = root
	}

	n := root
	for _, seg := range segs {
		if name, ok := paramName(seg); ok {
			if n.param == nil {
				n.param = &node{}
				n.paramName = name
			} else if n.paramName != name {
				// Same slot, two different parameter names: the
				// patterns are indistinguishable at match time.
				return fmt.Errorf("%w: %s %s collides with {%s}", ErrRouteConflict, method, pattern, n.paramName)
			}
			n = n.param
			continue
		}
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child := n.children[seg]
		if child == nil {
			child = &node{}
			n.children[seg] = child
		}
		n = child
	}

	if n.handler != nil {
		return fmt.Errorf("%w: %s %s", ErrRouteConflict, method, pattern)
	}
	n.pattern = pattern
	for i := len(r.middleware) - 1; i >= 0; i-- {
		h = r.middleware[i](h)
	}
	n.handler = h
	return nil
}

// Use appends middleware applied to every handler registered afterwards.
func (r *Router) Use(mw Middleware) {
	r.middleware = append(r.middleware, mw)
}

// Dispatch matches req against the registered routes and runs the handler.
// No match yields a 404 response; a handler error or panic yields a generic
// 500 response with the cause logged, never echoed to the client.
func (r *Router) Dispatch(ctx context.Context, req *Request) *Response {
	resp, _ := r.dispatch(ctx, req)
	return resp
}

// dispatch also reports the matched pattern for metrics labeling.
func (r *Router) dispatch(ctx context.Context, req *Request) (*Response, string) {
	root := r.trees[req.Method]
	if root == nil {
		return notFoundResponse(), ""
	}

	segs := pathSegments(req.Path)
	var bound []boundParam
	n := match(root, segs, &bound)
	if n == nil {
		return notFoundResponse(), ""
	}

	if len(bound) > 0 {
		req.Params = make(map[string]string, len(bound))
		for _, p := range bound {
			req.Params[p.name] = p.value
		}
	}

	resp, err := r.invoke(ctx, n.handler, req)
	if err != nil {
		if r.log != nil {
			r.log.Error(ctx, "handler failed",
				logger.String("method", req.Method),
				logger.String("pattern", n.pattern),
				logger.Err(err))
		}
		return internalErrorResponse(), n.pattern
	}
	if resp == nil {
		resp = NoContent(http.StatusOK)
	}
	return resp, n.pattern
}

// invoke runs the handler, converting panics into errors.
func (r *Router) invoke(ctx context.Context, h Handler, req *Request) (resp *Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = nil
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, req)
}

type boundParam struct {
	name  string
	value string
}

// match walks the trie for segs. Static children are tried before the
// parameter child; on a dead end the walk backtracks and any parameters
// bound below that point are unbound.
func match(n *node, segs []string, bound *[]boundParam) *node {
	if len(segs) == 0 {
		if n.handler != nil {
			return n
		}
		return nil
	}
	seg := segs[0]
	if child := n.children[seg]; child != nil {
		if found := match(child, segs[1:], bound); found != nil {
			return found
		}
	}
	if n.param != nil {
		*bound = append(*bound, boundParam{name: n.paramName, value: seg})
		if found := match(n.param, segs[1:], bound); found != nil {
			return found
		}
		*bound = (*bound)[:len(*bound)-1]
	}
	return nil
}

// patternSegments validates and splits a route pattern.
func patternSegments(pattern string) ([]string, error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, fmt.Errorf("%w: %q must start with /", ErrBadPattern, pattern)
	}
	segs := pathSegments(pattern)
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrBadPattern, pattern)
		}
		if strings.HasPrefix(seg, "{") != strings.HasSuffix(seg, "}") {
			return nil, fmt.Errorf("%w: %q has an unbalanced parameter segment", ErrBadPattern, pattern)
		}
		if name, ok := paramName(seg); ok && name == "" {
			return nil, fmt.Errorf("%w: %q has an unnamed parameter", ErrBadPattern, pattern)
		}
	}
	return segs, nil
}

func paramName(seg string) (string, bool) {
	if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
		return seg[1 : len(seg)-1], true
	}
	return "", false
}

// pathSegments splits a request path, ignoring a trailing slash.
func pathSegments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func notFoundResponse() *Response {
	return JSON(http.StatusNotFound, map[string]string{
		"code":    "not_found",
		"message": http.StatusText(http.StatusNotFound),
	})
}

func internalErrorResponse() *Response {
	return JSON(http.StatusInternalServerError, map[string]string{
		"code":    "internal_error",
		"message": http.StatusText(http.StatusInternalServerError),
	})
}
