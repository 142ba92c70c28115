package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "viaggi/internal/log"
)

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if !strings.HasPrefix(a, "req_") || len(a) != 20 {
		t.Errorf("unexpected id %q", a)
	}
	if a == b {
		t.Error("ids should be unique")
	}
}

func TestMiddleware_PropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Component: applog.ComponentHTTP, Output: &buf})
	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/trips/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		applog.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})
	h := NewMiddleware(logger, func(*http.Request) string { return "1.2.3.4" }).Middleware(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/trips/t-1", nil)
	req.Header.Set(RequestIDHeader, "req_fixed")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rr.Code)
	}
	if seen != "req_fixed" || rr.Header().Get(RequestIDHeader) != "req_fixed" {
		t.Errorf("request id not propagated: seen=%q header=%q", seen, rr.Header().Get(RequestIDHeader))
	}
	out := buf.String()
	if strings.Count(out, "request_id=req_fixed") != 2 {
		t.Errorf("expected handler and access log lines with the request id, got %q", out)
	}
	if !strings.Contains(out, "client_ip=1.2.3.4") {
		t.Errorf("access log missing client ip: %q", out)
	}
}

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	h := NewMiddleware(nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.HasPrefix(rr.Header().Get(RequestIDHeader), "req_") {
		t.Errorf("expected generated request id, got %q", rr.Header().Get(RequestIDHeader))
	}
}
