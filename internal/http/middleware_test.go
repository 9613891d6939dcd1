package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/courses", nil))
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a generated request id header")
	}
}

func TestRequestLoggerKeepsUpstreamRequestID(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "upstream-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "upstream-1" {
		t.Fatalf("request id = %q, want upstream-1", got)
	}
}

func TestClientAddrPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientAddr(req); got != "203.0.113.9" {
		t.Fatalf("clientAddr = %q, want first forwarded hop", got)
	}
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	plain.RemoteAddr = "192.0.2.4:5123"
	if got := clientAddr(plain); got != "192.0.2.4" {
		t.Fatalf("clientAddr = %q, want bare host", got)
	}
}
