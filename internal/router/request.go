package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Header is a string-to-string header map that preserves insertion order.
// Lookups are exact-match on the key as set.
type Header struct {
	keys []string
	vals map[string]string
}

// Set adds or replaces a header. First insertion fixes the key's position.
func (h *Header) Set(key, value string) {
	if h.vals == nil {
		h.vals = make(map[string]string)
	}
	if _, ok := h.vals[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.vals[key] = value
}

// Get returns the value for key, or the empty string.
func (h *Header) Get(key string) string {
	return h.vals[key]
}

// Keys returns the header names in insertion order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Len returns the number of headers.
func (h *Header) Len() int { return len(h.keys) }

// Request is the router's view of one incoming HTTP request. It is built
// per request and discarded after the handler returns.
type Request struct {
	Method string
	Path   string
	Header Header
	Query  url.Values

	// Params holds path parameters extracted during dispatch,
	// keyed by the pattern's parameter names.
	Params map[string]string

	// Body is the request payload, fully read and bounded by the
	// transport adapter.
	Body []byte
}

// Response is what a handler produces. The transport adapter writes it out.
type Response struct {
	Status int
	Header Header
	Body   []byte
}

// Handler produces a Response for a Request.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// JSON builds a Response with a JSON-encoded body.
func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		// Marshal of handler-owned types failing is a programming error.
		return &Response{Status: http.StatusInternalServerError}
	}
	resp := &Response{Status: status, Body: body}
	resp.Header.Set("Content-Type", "application/json; charset=utf-8")
	return resp
}

// NoContent builds an empty Response with the given status.
func NoContent(status int) *Response {
	return &Response{Status: status}
}
