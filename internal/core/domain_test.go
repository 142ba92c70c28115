package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validTrip() Trip {
	return Trip{
		ID:                  "t1",
		Name:                "Asia",
		StartDate:           day(2025, 1, 1),
		EndDate:             day(2025, 1, 10),
		TotalBudget:         1000,
		MainCurrency:        "EUR",
		PreferredCurrencies: []string{"EUR", "THB"},
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Amount:      10,
		Currency:    "EUR",
		Category:    "Cibo",
		Description: "pad thai",
		Date:        day(2025, 1, 2),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Expense)
		want error
	}{
		{"zero date", func(e *Expense) { e.Date = time.Time{} }, ErrEmptyDate},
		{"zero amount", func(e *Expense) { e.Amount = 0 }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = -3 }, ErrInvalidAmount},
		{"empty description", func(e *Expense) { e.Description = "" }, ErrEmptyDescription},
		{"long description", func(e *Expense) { e.Description = strings.Repeat("a", 201) }, ErrDescriptionTooLong},
		{"empty category", func(e *Expense) { e.Category = "" }, ErrEmptyCategory},
		{"bad currency", func(e *Expense) { e.Currency = "XYZ1" }, ErrInvalidCurrency},
	}
	for _, tc := range cases {
		e := good
		tc.mut(&e)
		err := e.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestTripValidate(t *testing.T) {
	if err := validTrip().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Trip)
		want error
	}{
		{"empty name", func(tr *Trip) { tr.Name = "" }, ErrEmptyName},
		{"end before start", func(tr *Trip) { tr.EndDate = day(2024, 12, 31) }, ErrInvalidDateRange},
		{"zero start", func(tr *Trip) { tr.StartDate = time.Time{} }, ErrEmptyDate},
		{"zero budget", func(tr *Trip) { tr.TotalBudget = 0 }, ErrInvalidBudget},
		{"bad main currency", func(tr *Trip) { tr.MainCurrency = "euro" }, ErrInvalidCurrency},
		{"bad preferred currency", func(tr *Trip) { tr.PreferredCurrencies = []string{"EUR", "??"} }, ErrInvalidCurrency},
	}
	for _, tc := range cases {
		tr := validTrip()
		tc.mut(&tr)
		if err := tr.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// same-day trips are allowed
	tr := validTrip()
	tr.EndDate = tr.StartDate
	if err := tr.Validate(); err != nil {
		t.Fatalf("same day trip: %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Musei", Icon: "🏛️"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: "", Icon: "🏛️"}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Category{Name: "Musei"}).Validate(); !errors.Is(err, ErrEmptyIcon) {
		t.Fatalf("expected ErrEmptyIcon, got %v", err)
	}
}

func TestAccountClone(t *testing.T) {
	tr := validTrip()
	tr.Expenses = []Expense{{ID: "e1", Amount: 1, Currency: "EUR", Category: "Cibo", Description: "x", Date: day(2025, 1, 1)}}
	a := &Account{Trips: []Trip{tr}, Categories: DefaultCategories()}

	c := a.Clone()
	c.Trips[0].Expenses[0].Amount = 99
	c.Trips[0].PreferredCurrencies[0] = "USD"
	c.Categories[0].Name = "changed"

	if a.Trips[0].Expenses[0].Amount != 1 {
		t.Fatalf("clone aliases expenses")
	}
	if a.Trips[0].PreferredCurrencies[0] != "EUR" {
		t.Fatalf("clone aliases preferred currencies")
	}
	if a.Categories[0].Name != "Cibo" {
		t.Fatalf("clone aliases categories")
	}
	if (*Account)(nil).Clone() != nil {
		t.Fatalf("nil clone should be nil")
	}
}

func TestStaleCategoryRefs(t *testing.T) {
	a := Account{Categories: DefaultCategories()}
	tr := validTrip()
	tr.Expenses = []Expense{{Category: "Cibo"}, {Category: "Ghost"}, {Category: "Ghost"}}
	tr.CategoryBudgets = []CategoryBudget{{CategoryName: "Old", Amount: 5}}

	got := a.StaleCategoryRefs(tr)
	if len(got) != 2 || got[0] != "Ghost" || got[1] != "Old" {
		t.Fatalf("unexpected stale refs: %v", got)
	}
	if _, ok := a.CategoryByName("Varie"); !ok {
		t.Fatalf("expected Varie to resolve")
	}
}
