package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewTagsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentRates, Output: &buf})

	l.Info("refreshed")

	out := buf.String()
	if strings.Count(out, "component=rates") != 1 {
		t.Errorf("expected component exactly once, got %q", out)
	}
	if l.Component() != ComponentRates {
		t.Errorf("Component() = %q", l.Component())
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf})

	l.Debug("hello", FieldTripID, "t-1")

	if !strings.Contains(buf.String(), `"trip_id":"t-1"`) {
		t.Errorf("expected json output, got %q", buf.String())
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithTrip("t-1").
		WithExpense("e-1", 12.5, "EUR", "Cibo").
		WithSnapshot("acct", 42).
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldTripID] != "t-1" || f[FieldCurrency] != "EUR" || f[FieldVersion] != int64(42) {
		t.Errorf("unexpected fields: %v", f)
	}
	if f[FieldError] != "boom" {
		t.Errorf("nil error must not overwrite, got %v", f[FieldError])
	}
	if len(f.ToSlice()) != len(f)*2 {
		t.Error("ToSlice should yield key/value pairs")
	}
}

func TestMiddlewareAddsRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentHTTP, Output: &buf})
	h := Middleware(base, func(*http.Request) string { return "req-1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LogRequest(r.Context(), r, http.StatusNotFound, 3*time.Millisecond, "10.0.0.1")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/trips/x", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "request_id=req-1", "status_code=404", "path=/api/trips/x"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l.Logger == nil {
		t.Fatal("expected a usable logger")
	}
}
