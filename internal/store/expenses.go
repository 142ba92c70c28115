package store

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"viaggi/internal/core"
)

func (s *Store) checkExpense(a *core.Account, t *core.Trip, e *core.Expense, prevCategory string) error {
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.TrimSpace(e.Category)
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	if err := e.Validate(); err != nil {
		return err
	}
	if !t.AllowsCurrency(e.Currency) {
		return validationErr("currency", core.ErrCurrencyNotPreferred)
	}
	if e.Category != prevCategory {
		if _, ok := a.CategoryByName(e.Category); !ok {
			return validationErr("category", core.ErrUnknownCategory)
		}
	}
	if e.Country == "" {
		e.Country, _ = core.CountryForCurrency(e.Currency)
	}
	return nil
}

// checkTemplate normalizes and validates f. As with expenses, a category
// equal to prevCategory is not looked up again.
func checkTemplate(a *core.Account, f *core.FrequentExpense, prevCategory string) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Icon = strings.TrimSpace(f.Icon)
	f.Category = strings.TrimSpace(f.Category)
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Category != prevCategory {
		if _, ok := a.CategoryByName(f.Category); !ok {
			return validationErr("category", core.ErrUnknownCategory)
		}
	}
	return nil
}

func templateByID(t *core.Trip, id string) int {
	return slices.IndexFunc(t.FrequentExpenses, func(f core.FrequentExpense) bool { return f.ID == id })
}

// AddExpense records a new expense on the trip.
func (s *Store) AddExpense(a *core.Account, tripID string, d core.ExpenseDraft) (*core.Account, core.Expense, error) {
	e := core.Expense{
		Amount:      d.Amount,
		Currency:    d.Currency,
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date,
		Country:     strings.TrimSpace(d.Country),
	}
	next, err := withTrip(a, tripID, func(next *core.Account, t *core.Trip) error {
		if err := s.checkExpense(next, t, &e, ""); err != nil {
			return err
		}
		e.ID = s.ids.NewID()
		t.Expenses = append(t.Expenses, e)
		return nil
	})
	if err != nil {
		return nil, core.Expense{}, err
	}
	return next, e, nil
}

// UpdateExpense replaces the stored expense with the same id. A category
// that was already stale may be kept as is.
func (s *Store) UpdateExpense(a *core.Account, tripID string, e core.Expense) (*core.Account, error) {
	return withTrip(a, tripID, func(next *core.Account, t *core.Trip) error {
		i := t.ExpenseByID(e.ID)
		if i < 0 {
			return fmt.Errorf("%s: %w", e.ID, core.ErrExpenseNotFound)
		}
		if err := s.checkExpense(next, t, &e, t.Expenses[i].Category); err != nil {
			return err
		}
		t.Expenses[i] = e
		return nil
	})
}

func (s *Store) DeleteExpense(a *core.Account, tripID, expenseID string) (*core.Account, error) {
	return withTrip(a, tripID, func(_ *core.Account, t *core.Trip) error {
		i := t.ExpenseByID(expenseID)
		if i < 0 {
			return fmt.Errorf("%s: %w", expenseID, core.ErrExpenseNotFound)
		}
		t.Expenses = slices.Delete(t.Expenses, i, i+1)
		return nil
	})
}

// AddFrequentExpense stores a reusable template on the trip.
func (s *Store) AddFrequentExpense(a *core.Account, tripID string, d core.FrequentExpenseDraft) (*core.Account, core.FrequentExpense, error) {
	f := core.FrequentExpense{
		Name:     strings.TrimSpace(d.Name),
		Icon:     strings.TrimSpace(d.Icon),
		Category: strings.TrimSpace(d.Category),
		Amount:   d.Amount,
	}
	next, err := withTrip(a, tripID, func(next *core.Account, t *core.Trip) error {
		if err := checkTemplate(next, &f, ""); err != nil {
			return err
		}
		f.ID = s.ids.NewID()
		t.FrequentExpenses = append(t.FrequentExpenses, f)
		return nil
	})
	if err != nil {
		return nil, core.FrequentExpense{}, err
	}
	return next, f, nil
}

func (s *Store) DeleteFrequentExpense(a *core.Account, tripID, templateID string) (*core.Account, error) {
	return withTrip(a, tripID, func(_ *core.Account, t *core.Trip) error {
		i := templateByID(t, templateID)
		if i < 0 {
			return fmt.Errorf("%s: %w", templateID, core.ErrTemplateNotFound)
		}
		t.FrequentExpenses = slices.Delete(t.FrequentExpenses, i, i+1)
		return nil
	})
}

// ExpenseFromTemplate turns a template into an expense draft. An empty
// currency means the trip's main currency.
func ExpenseFromTemplate(a *core.Account, tripID, templateID, currency string, date time.Time) (core.ExpenseDraft, error) {
	if a == nil {
		return core.ExpenseDraft{}, core.ErrNotLoaded
	}
	i := a.TripByID(tripID)
	if i < 0 {
		return core.ExpenseDraft{}, fmt.Errorf("%s: %w", tripID, core.ErrTripNotFound)
	}
	t := a.Trips[i]
	j := slices.IndexFunc(t.FrequentExpenses, func(f core.FrequentExpense) bool { return f.ID == templateID })
	if j < 0 {
		return core.ExpenseDraft{}, fmt.Errorf("%s: %w", templateID, core.ErrTemplateNotFound)
	}
	f := t.FrequentExpenses[j]
	if currency == "" {
		currency = t.MainCurrency
	}
	return core.ExpenseDraft{
		Amount:      f.Amount,
		Currency:    currency,
		Category:    f.Category,
		Description: f.Name,
		Date:        date,
	}, nil
}
