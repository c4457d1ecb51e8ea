package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// The logging wrapper must not hide the connection from handlers that
// upgrade it: the event feed hijacks the connection through every
// global middleware.
func TestLoggingMiddlewarePreservesHijack(t *testing.T) {
	srv := testServer(t)

	hijacked := make(chan error, 1)
	handler := srv.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			hijacked <- http.ErrNotSupported
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			hijacked <- err
			return
		}
		conn.Close()
		hijacked <- nil
	}))

	ts := httptest.NewServer(handler)
	defer ts.Close()

	//nolint:errcheck // connection is hijacked and closed server-side
	http.Get(ts.URL)

	if err := <-hijacked; err != nil {
		t.Fatalf("hijack through logging middleware failed: %v", err)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	})

	t.Run("production responses stay generic", func(t *testing.T) {
		srv := testServer(t)

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		w := httptest.NewRecorder()
		srv.recoveryMiddleware(panicking).ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
		resp := decodeBody(t, w)
		if resp["message"] != "internal server error" {
			t.Errorf("message = %v, want generic error", resp["message"])
		}
	})

	t.Run("debug mode echoes the panic value", func(t *testing.T) {
		srv := testServer(t)
		srv.cfg.Debug = true

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		w := httptest.NewRecorder()
		srv.recoveryMiddleware(panicking).ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
		resp := decodeBody(t, w)
		if resp["message"] != "internal server error: boom" {
			t.Errorf("message = %v, want panic detail", resp["message"])
		}
	})
}
