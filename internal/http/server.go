// Package http exposes the travel expense engine as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"viaggi/internal/currency"
	applog "viaggi/internal/log"
	"viaggi/internal/middleware/ratelimit"
	"viaggi/internal/middleware/security"
	"viaggi/internal/middleware/trace"
	"viaggi/internal/services"
	"viaggi/internal/summary"
)

// RateService is satisfied by *currency.RateStore.
type RateService interface {
	currency.RateSource
	Updating() bool
	Refresh(ctx context.Context) (currency.Table, time.Time, error)
}

// SessionStore remembers the last selected trip across restarts.
type SessionStore interface {
	ActiveTripID(ctx context.Context) (string, error)
	SetActiveTripID(ctx context.Context, id string) error
}

// Deps lists what the server needs. Now and Location default to time.Now
// and time.Local.
type Deps struct {
	Engine    *services.SyncEngine
	Summary   *summary.Engine
	Rates     RateService
	Session   SessionStore
	Logger    *applog.Logger
	RateLimit ratelimit.Config
	Location  *time.Location
	Now       func() time.Time
}

type Server struct {
	http.Server

	engine  *services.SyncEngine
	summary *summary.Engine
	rates   RateService
	session SessionStore
	loc     *time.Location
	now     func() time.Time

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, d Deps) *Server {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Logger == nil {
		d.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		engine:  d.Engine,
		summary: d.Summary,
		rates:   d.Rates,
		session: d.Session,
		loc:     d.Location,
		now:     d.Now,
		limiter: ratelimit.NewLimiter(d.RateLimit),
	}

	ips := security.NewIPExtractor()
	limited := s.limiter.Middleware(ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errRateLimited)
	})
	mutate := func(h http.HandlerFunc) http.Handler { return limited(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/countries", handleCountries)

	mux.HandleFunc("GET /api/trips", s.handleListTrips)
	mux.Handle("POST /api/trips", mutate(s.handleCreateTrip))
	mux.Handle("PUT /api/trips/{id}", mutate(s.handleUpdateTrip))
	mux.Handle("DELETE /api/trips/{id}", mutate(s.handleDeleteTrip))
	mux.Handle("POST /api/trips/{id}/currencies", mutate(s.handleAddCurrency))
	mux.Handle("DELETE /api/trips/{id}/currencies/{code}", mutate(s.handleRemoveCurrency))
	mux.Handle("PUT /api/trips/{id}/main-currency", mutate(s.handleSetMainCurrency))
	mux.Handle("POST /api/trips/{id}/countries", mutate(s.handleToggleCountry))
	mux.Handle("PUT /api/trips/{id}/budgets/{category}", mutate(s.handleSetBudget))
	mux.HandleFunc("GET /api/trips/{id}/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/trips/{id}/trend", s.handleTrend)

	mux.Handle("POST /api/trips/{id}/expenses", mutate(s.handleCreateExpense))
	mux.Handle("PUT /api/trips/{id}/expenses/{expenseID}", mutate(s.handleUpdateExpense))
	mux.Handle("DELETE /api/trips/{id}/expenses/{expenseID}", mutate(s.handleDeleteExpense))

	mux.Handle("POST /api/trips/{id}/frequent-expenses", mutate(s.handleCreateTemplate))
	mux.Handle("DELETE /api/trips/{id}/frequent-expenses/{templateID}", mutate(s.handleDeleteTemplate))
	mux.Handle("POST /api/trips/{id}/frequent-expenses/{templateID}/use", mutate(s.handleUseTemplate))

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.Handle("POST /api/categories", mutate(s.handleCreateCategory))
	mux.Handle("PUT /api/categories/{id}", mutate(s.handleUpdateCategory))
	mux.Handle("DELETE /api/categories/{id}", mutate(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/rates", s.handleRates)
	mux.Handle("POST /api/rates/refresh", mutate(s.handleRefreshRates))
	mux.HandleFunc("GET /api/convert", s.handleConvert)

	mux.HandleFunc("GET /api/session/active-trip", s.handleGetActiveTrip)
	mux.Handle("PUT /api/session/active-trip", mutate(s.handlePutActiveTrip))

	var h http.Handler = mux
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(d.Logger, ips.ClientIP).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once an account snapshot is in memory.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.engine.Snapshot() == nil || s.engine.Loading() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
