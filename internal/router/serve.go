package router

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"plinth/pkg/metrics"
)

// ServeHTTP adapts net/http to Dispatch: it builds a Request with a bounded
// body read, dispatches it, records request metrics, and writes the Response.
func (r *Router) ServeHTTP(w http.ResponseWriter, hr *http.Request) {
	start := time.Now()

	req := &Request{
		Method: hr.Method,
		Path:   hr.URL.Path,
		Query:  hr.URL.Query(),
	}

	// net/http headers are unordered; insert sorted for a stable order.
	names := make([]string, 0, len(hr.Header))
	for name := range hr.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.Header.Set(name, hr.Header.Get(name))
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, hr.Body, r.maxBodyBytes))
	if err != nil {
		resp := payloadErrorResponse(err)
		writeResponse(w, resp)
		metrics.RecordHTTPRequest("unmatched", hr.Method, strconv.Itoa(resp.Status))
		return
	}
	req.Body = body

	resp, pattern := r.dispatch(hr.Context(), req)
	writeResponse(w, resp)

	endpoint := pattern
	if endpoint == "" {
		endpoint = "unmatched"
	}
	metrics.RecordHTTPRequest(endpoint, hr.Method, strconv.Itoa(resp.Status))
	metrics.RecordHTTPRequestDuration(endpoint, hr.Method, time.Since(start).Seconds())
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	for _, key := range resp.Header.Keys() {
		w.Header().Set(key, resp.Header.Get(key))
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func payloadErrorResponse(err error) *Response {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return JSON(http.StatusRequestEntityTooLarge, map[string]string{
			"code":    "payload_too_large",
			"message": http.StatusText(http.StatusRequestEntityTooLarge),
		})
	}
	return JSON(http.StatusBadRequest, map[string]string{
		"code":    "bad_request",
		"message": "unreadable request body",
	})
}
