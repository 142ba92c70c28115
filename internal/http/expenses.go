package http

import (
	"fmt"
	"net/http"
	"slices"

	"viaggi/internal/core"
	applog "viaggi/internal/log"
)

type expenseRequest struct {
	Amount      amountField `json:"amount"`
	Currency    string      `json:"currency"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Country     string      `json:"country"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDay(req.Date, s.loc, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	tripID := r.PathValue("id")
	x, err := s.engine.AddExpense(r.Context(), tripID, core.ExpenseDraft{
		Amount:      float64(req.Amount),
		Currency:    req.Currency,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
		Country:     req.Country,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense added",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithTrip(tripID).
			WithExpense(x.ID, x.Amount, x.Currency, x.Category).
			ToSlice()...)
	writeJSON(w, http.StatusCreated, x)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDay(req.Date, s.loc, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	tripID, expenseID := r.PathValue("id"), r.PathValue("expenseID")
	err = s.engine.UpdateExpense(r.Context(), tripID, core.Expense{
		ID:          expenseID,
		Amount:      float64(req.Amount),
		Currency:    req.Currency,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
		Country:     req.Country,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, _, err := s.tripOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	i := t.ExpenseByID(expenseID)
	if i < 0 {
		// deleted by a concurrent request
		writeError(w, r, fmt.Errorf("%s: %w", expenseID, core.ErrExpenseNotFound))
		return
	}
	writeJSON(w, http.StatusOK, t.Expenses[i])
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	tripID, expenseID := r.PathValue("id"), r.PathValue("expenseID")
	if err := s.engine.DeleteExpense(r.Context(), tripID, expenseID); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		applog.NewFields().WithOperation(applog.OpDelete).WithTrip(tripID).ToSlice()...)
	w.WriteHeader(http.StatusNoContent)
}

type templateRequest struct {
	Name     string      `json:"name"`
	Icon     string      `json:"icon"`
	Category string      `json:"category"`
	Amount   amountField `json:"amount"`
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := s.engine.AddFrequentExpense(r.Context(), r.PathValue("id"), core.FrequentExpenseDraft{
		Name:     req.Name,
		Icon:     req.Icon,
		Category: req.Category,
		Amount:   float64(req.Amount),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteFrequentExpense(r.Context(), r.PathValue("id"), r.PathValue("templateID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUseTemplate records an expense from a template. The body is
// optional; currency defaults to the trip's main currency and date to today.
func (s *Server) handleUseTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string `json:"currency"`
		Date     string `json:"date"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	date, err := parseDay(req.Date, s.loc, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	x, err := s.engine.UseFrequentExpense(r.Context(), r.PathValue("id"), r.PathValue("templateID"), req.Currency, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, x)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req core.CategoryDraft
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.engine.AddCategory(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleUpdateCategory renames a custom category; references follow.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req core.CategoryDraft
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c := core.Category{ID: r.PathValue("id"), Name: req.Name, Icon: req.Icon}
	if err := s.engine.UpdateCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	cats := s.engine.Snapshot().Categories
	if i := slices.IndexFunc(cats, func(x core.Category) bool { return x.ID == c.ID }); i >= 0 {
		c = cats[i]
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	a := s.engine.Snapshot()
	if a == nil {
		writeError(w, r, core.ErrNotLoaded)
		return
	}
	writeJSON(w, http.StatusOK, a.Categories)
}
