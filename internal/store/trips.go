package store

import (
	"fmt"
	"slices"
	"strings"

	"viaggi/internal/core"
)

// AddTrip creates a trip from d. The main currency is always added to the
// preferred currencies.
func (s *Store) AddTrip(a *core.Account, d core.TripDraft) (*core.Account, core.Trip, error) {
	next, err := clone(a)
	if err != nil {
		return nil, core.Trip{}, err
	}
	t := core.Trip{
		ID:                    s.ids.NewID(),
		Name:                  strings.TrimSpace(d.Name),
		StartDate:             d.StartDate,
		EndDate:               d.EndDate,
		TotalBudget:           d.TotalBudget,
		Countries:             slices.Clone(d.Countries),
		MainCurrency:          strings.ToUpper(strings.TrimSpace(d.MainCurrency)),
		EnableCategoryBudgets: d.EnableCategoryBudgets,
	}
	t.PreferredCurrencies = unionCurrencies(d.PreferredCurrencies, t.MainCurrency)
	t.CategoryBudgets = normalizeBudgets(d.EnableCategoryBudgets, d.CategoryBudgets)
	if err := checkBudgets(next, nil, t.CategoryBudgets); err != nil {
		return nil, core.Trip{}, err
	}
	for _, f := range d.FrequentExpenses {
		f.ID = s.ids.NewID()
		if err := checkTemplate(next, &f, ""); err != nil {
			return nil, core.Trip{}, err
		}
		t.FrequentExpenses = append(t.FrequentExpenses, f)
	}
	fillTrip(&t)
	if err := t.Validate(); err != nil {
		return nil, core.Trip{}, err
	}
	next.Trips = append(next.Trips, t)
	return next, t, nil
}

// UpdateTrip replaces the stored trip with the same id. Expenses and
// templates may be edited but not added: every id must already belong to
// the trip, and edited entries are checked like their own operations.
func (s *Store) UpdateTrip(a *core.Account, t core.Trip) (*core.Account, error) {
	return withTrip(a, t.ID, func(next *core.Account, cur *core.Trip) error {
		t = t.Clone()
		t.Name = strings.TrimSpace(t.Name)
		t.MainCurrency = strings.ToUpper(strings.TrimSpace(t.MainCurrency))
		t.PreferredCurrencies = unionCurrencies(t.PreferredCurrencies, t.MainCurrency)
		t.CategoryBudgets = normalizeBudgets(t.EnableCategoryBudgets, t.CategoryBudgets)
		fillTrip(&t)
		if err := t.Validate(); err != nil {
			return err
		}
		if err := checkBudgets(next, cur.CategoryBudgets, t.CategoryBudgets); err != nil {
			return err
		}
		seen := make(map[string]bool, len(t.Expenses))
		for i := range t.Expenses {
			e := &t.Expenses[i]
			if e.ID == "" || seen[e.ID] {
				return validationErr("id", core.ErrInvalidID)
			}
			seen[e.ID] = true
			j := cur.ExpenseByID(e.ID)
			if j < 0 {
				return fmt.Errorf("%s: %w", e.ID, core.ErrExpenseNotFound)
			}
			if err := s.checkExpense(next, &t, e, cur.Expenses[j].Category); err != nil {
				return err
			}
		}
		clear(seen)
		for i := range t.FrequentExpenses {
			f := &t.FrequentExpenses[i]
			if f.ID == "" || seen[f.ID] {
				return validationErr("id", core.ErrInvalidID)
			}
			seen[f.ID] = true
			j := templateByID(cur, f.ID)
			if j < 0 {
				return fmt.Errorf("%s: %w", f.ID, core.ErrTemplateNotFound)
			}
			if err := checkTemplate(next, f, cur.FrequentExpenses[j].Category); err != nil {
				return err
			}
		}
		*cur = t
		return nil
	})
}

// checkBudgets requires every budget not carried over from prev to name an
// existing category.
func checkBudgets(a *core.Account, prev, in []core.CategoryBudget) error {
	for _, b := range in {
		if slices.ContainsFunc(prev, func(p core.CategoryBudget) bool { return p.CategoryName == b.CategoryName }) {
			continue
		}
		if _, ok := a.CategoryByName(b.CategoryName); !ok {
			return validationErr("categoryName", core.ErrUnknownCategory)
		}
	}
	return nil
}

// DeleteTrip removes the trip together with everything it owns.
func (s *Store) DeleteTrip(a *core.Account, tripID string) (*core.Account, error) {
	next, err := clone(a)
	if err != nil {
		return nil, err
	}
	i := next.TripByID(tripID)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", tripID, core.ErrTripNotFound)
	}
	next.Trips = slices.Delete(next.Trips, i, i+1)
	return next, nil
}

// SetCategoryBudget declares the budget for one category. A non-positive
// amount removes it. Declaring a budget turns category budgets on.
func (s *Store) SetCategoryBudget(a *core.Account, tripID, categoryName string, amount float64) (*core.Account, error) {
	categoryName = strings.TrimSpace(categoryName)
	return withTrip(a, tripID, func(next *core.Account, t *core.Trip) error {
		i := slices.IndexFunc(t.CategoryBudgets, func(b core.CategoryBudget) bool { return b.CategoryName == categoryName })
		if amount <= 0 {
			if i >= 0 {
				t.CategoryBudgets = slices.Delete(t.CategoryBudgets, i, i+1)
			}
			return nil
		}
		if _, ok := next.CategoryByName(categoryName); !ok {
			return validationErr("categoryName", core.ErrUnknownCategory)
		}
		t.EnableCategoryBudgets = true
		if i >= 0 {
			t.CategoryBudgets[i].Amount = amount
			return nil
		}
		t.CategoryBudgets = append(t.CategoryBudgets, core.CategoryBudget{CategoryName: categoryName, Amount: amount})
		return nil
	})
}

// AddPreferredCurrency makes code available for the trip's expenses.
func (s *Store) AddPreferredCurrency(a *core.Account, tripID, code string) (*core.Account, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !core.ValidCurrency(code) {
		return nil, validationErr("currency", core.ErrInvalidCurrency)
	}
	return withTrip(a, tripID, func(_ *core.Account, t *core.Trip) error {
		t.PreferredCurrencies = unionCurrencies(t.PreferredCurrencies, code)
		return nil
	})
}

// RemovePreferredCurrency drops code. The main currency and currencies
// that expenses are recorded in cannot be removed.
func (s *Store) RemovePreferredCurrency(a *core.Account, tripID, code string) (*core.Account, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return withTrip(a, tripID, func(_ *core.Account, t *core.Trip) error {
		if code == t.MainCurrency {
			return core.ErrMainCurrency
		}
		if slices.ContainsFunc(t.Expenses, func(e core.Expense) bool { return e.Currency == code }) {
			return fmt.Errorf("%s: %w", code, core.ErrCurrencyInUse)
		}
		t.PreferredCurrencies = slices.DeleteFunc(t.PreferredCurrencies, func(c string) bool { return c == code })
		return nil
	})
}

// SetMainCurrency switches the currency the trip is reported in.
func (s *Store) SetMainCurrency(a *core.Account, tripID, code string) (*core.Account, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !core.ValidCurrency(code) {
		return nil, validationErr("mainCurrency", core.ErrInvalidCurrency)
	}
	return withTrip(a, tripID, func(_ *core.Account, t *core.Trip) error {
		t.MainCurrency = code
		t.PreferredCurrencies = unionCurrencies(t.PreferredCurrencies, code)
		return nil
	})
}

// ToggleCountry adds or removes a destination. Adding a known country also
// makes its currency preferred; removing leaves currencies untouched.
func (s *Store) ToggleCountry(a *core.Account, tripID, country string) (*core.Account, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, validationErr("country", core.ErrEmptyName)
	}
	return withTrip(a, tripID, func(_ *core.Account, t *core.Trip) error {
		if i := slices.Index(t.Countries, country); i >= 0 {
			t.Countries = slices.Delete(t.Countries, i, i+1)
			return nil
		}
		t.Countries = append(t.Countries, country)
		if code, ok := core.CurrencyForCountry(country); ok {
			t.PreferredCurrencies = unionCurrencies(t.PreferredCurrencies, code)
		}
		return nil
	})
}
