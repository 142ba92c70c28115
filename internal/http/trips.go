package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"viaggi/internal/core"
	applog "viaggi/internal/log"
)

// tripRequest is the body of trip create and update calls. Dates are
// calendar days (YYYY-MM-DD) in the travel timezone.
type tripRequest struct {
	Name                  string                 `json:"name"`
	StartDate             string                 `json:"startDate"`
	EndDate               string                 `json:"endDate"`
	TotalBudget           float64                `json:"totalBudget"`
	Countries             []string               `json:"countries"`
	MainCurrency          string                 `json:"mainCurrency"`
	PreferredCurrencies   []string               `json:"preferredCurrencies"`
	FrequentExpenses      []core.FrequentExpense `json:"frequentExpenses"`
	EnableCategoryBudgets bool                   `json:"enableCategoryBudgets"`
	CategoryBudgets       []core.CategoryBudget  `json:"categoryBudgets"`
}

func (s *Server) tripDates(req tripRequest) (time.Time, time.Time, error) {
	start, err := parseDay(req.StartDate, s.loc, time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, &core.ValidationError{Field: "startDate", Err: core.ErrInvalidDate}
	}
	end, err := parseDay(req.EndDate, s.loc, time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, &core.ValidationError{Field: "endDate", Err: core.ErrInvalidDate}
	}
	return start, end, nil
}

// tripOf returns the trip named by the {id} path value from the current
// snapshot, together with the account's categories.
func (s *Server) tripOf(r *http.Request) (core.Trip, []core.Category, error) {
	a := s.engine.Snapshot()
	if a == nil {
		return core.Trip{}, nil, core.ErrNotLoaded
	}
	id := r.PathValue("id")
	i := a.TripByID(id)
	if i < 0 {
		return core.Trip{}, nil, fmt.Errorf("%s: %w", id, core.ErrTripNotFound)
	}
	return a.Trips[i], a.Categories, nil
}

type accountResponse struct {
	Account   *core.Account       `json:"account"`
	Overview  []core.TripOverview `json:"overview"`
	Loading   bool                `json:"loading"`
	LastError string              `json:"lastError,omitempty"`
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	a := s.engine.Snapshot()
	if a == nil {
		writeError(w, r, core.ErrNotLoaded)
		return
	}
	resp := accountResponse{
		Account:  a,
		Overview: s.summary.Overview(a),
		Loading:  s.engine.Loading(),
	}
	if err := s.engine.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	a := s.engine.Snapshot()
	if a == nil {
		writeError(w, r, core.ErrNotLoaded)
		return
	}
	writeJSON(w, http.StatusOK, s.summary.Overview(a))
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start, end, err := s.tripDates(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trip, err := s.engine.AddTrip(r.Context(), core.TripDraft{
		Name:                  req.Name,
		StartDate:             start,
		EndDate:               end,
		TotalBudget:           req.TotalBudget,
		Countries:             req.Countries,
		MainCurrency:          req.MainCurrency,
		PreferredCurrencies:   req.PreferredCurrencies,
		FrequentExpenses:      req.FrequentExpenses,
		EnableCategoryBudgets: req.EnableCategoryBudgets,
		CategoryBudgets:       req.CategoryBudgets,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Trip created",
		applog.NewFields().WithOperation(applog.OpCreate).WithTrip(trip.ID).ToSlice()...)
	writeJSON(w, http.StatusCreated, trip)
}

// handleUpdateTrip replaces the trip settings. Expenses and frequent
// expenses are left as they are; templates are managed on their own routes.
func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start, end, err := s.tripDates(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trip, err := s.engine.EditTrip(r.Context(), r.PathValue("id"), func(t *core.Trip) {
		t.Name = req.Name
		t.StartDate = start
		t.EndDate = end
		t.TotalBudget = req.TotalBudget
		t.Countries = req.Countries
		t.MainCurrency = req.MainCurrency
		t.PreferredCurrencies = req.PreferredCurrencies
		t.EnableCategoryBudgets = req.EnableCategoryBudgets
		t.CategoryBudgets = req.CategoryBudgets
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.engine.DeleteTrip(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Trip deleted",
		applog.NewFields().WithOperation(applog.OpDelete).WithTrip(id).ToSlice()...)
	w.WriteHeader(http.StatusNoContent)
}

type codeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleAddCurrency(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondTrip(w, r, s.engine.AddPreferredCurrency(r.Context(), r.PathValue("id"), req.Code))
}

func (s *Server) handleRemoveCurrency(w http.ResponseWriter, r *http.Request) {
	s.respondTrip(w, r, s.engine.RemovePreferredCurrency(r.Context(), r.PathValue("id"), r.PathValue("code")))
}

func (s *Server) handleSetMainCurrency(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondTrip(w, r, s.engine.SetMainCurrency(r.Context(), r.PathValue("id"), req.Code))
}

func (s *Server) handleToggleCountry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Country string `json:"country"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Country) == "" {
		writeError(w, r, &core.ValidationError{Field: "country", Err: core.ErrEmptyName})
		return
	}
	s.respondTrip(w, r, s.engine.ToggleCountry(r.Context(), r.PathValue("id"), req.Country))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondTrip(w, r, s.engine.SetCategoryBudget(r.Context(), r.PathValue("id"), r.PathValue("category"), req.Amount))
}

// respondTrip answers a trip-level mutation with the updated trip.
func (s *Server) respondTrip(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, _, err := s.tripOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	t, cats, err := s.tripOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.summary.Dashboard(t, cats, s.now()))
}

// handleTrend accepts an optional ?today=YYYY-MM-DD to cut the series.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	t, _, err := s.tripOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	today, err := parseDay(r.URL.Query().Get("today"), s.loc, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.summary.Trend(t, today))
}

func handleCountries(w http.ResponseWriter, _ *http.Request) {
	type country struct {
		Name     string `json:"name"`
		Currency string `json:"currency"`
	}
	names := core.Countries()
	out := make([]country, 0, len(names))
	for _, n := range names {
		c, _ := core.CurrencyForCountry(n)
		out = append(out, country{Name: n, Currency: c})
	}
	writeJSON(w, http.StatusOK, out)
}
