// Package testutil provides shared helpers for exercising the API
// client and stream decoding in tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// SSEBody builds a Server-Sent Events response body from data payloads.
// Each payload becomes one "data:" line followed by the blank frame
// terminator.
//
// Example:
//
//	body := testutil.SSEBody(
//		`{"type":"text","text":"Hi"}`,
//		`{"type":"done"}`,
//	)
func SSEBody(payloads ...string) string {
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString("data: ")
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	return b.String()
}

// StreamHandler returns an http.HandlerFunc that writes an SSE response
// with the given payloads, flushing after every frame so clients see the
// same incremental arrival they would in production.
func StreamHandler(t *testing.T, payloads ...string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		for _, p := range payloads {
			if _, err := w.Write([]byte("data: " + p + "\n\n")); err != nil {
				t.Errorf("writing SSE frame: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

// Server starts an httptest server routing by method+path.
// Unmatched requests fail the test so typos surface immediately.
//
// Example:
//
//	srv := testutil.Server(t, map[string]http.HandlerFunc{
//		"POST /conversations": createHandler,
//	})
func Server(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// JSONHandler writes a fixed JSON response with the given status.
func JSONHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
