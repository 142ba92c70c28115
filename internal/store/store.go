// Package store implements the account mutations. Every operation takes a
// snapshot and returns a new one; the input is never modified, and nothing
// is returned when an invariant would be violated.
package store

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"viaggi/internal/core"
)

// IDGenerator hands out entity ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator produces time-ordered UUIDv7 ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type Store struct {
	ids IDGenerator
}

// New returns a Store; a nil generator defaults to UUIDGenerator.
func New(ids IDGenerator) *Store {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Store{ids: ids}
}

// Normalize repairs a snapshot read from the remote: default categories are
// restored and nil collections become empty.
func Normalize(a *core.Account) *core.Account {
	if a == nil {
		return core.DefaultAccount()
	}
	out := a.Clone()
	out.Categories = core.EnsureDefaultCategories(out.Categories)
	if out.Trips == nil {
		out.Trips = []core.Trip{}
	}
	for i := range out.Trips {
		fillTrip(&out.Trips[i])
	}
	return out
}

func fillTrip(t *core.Trip) {
	if t.Countries == nil {
		t.Countries = []string{}
	}
	if t.PreferredCurrencies == nil {
		t.PreferredCurrencies = []string{}
	}
	if t.Expenses == nil {
		t.Expenses = []core.Expense{}
	}
	if t.FrequentExpenses == nil {
		t.FrequentExpenses = []core.FrequentExpense{}
	}
	if t.CategoryBudgets == nil {
		t.CategoryBudgets = []core.CategoryBudget{}
	}
}

func clone(a *core.Account) (*core.Account, error) {
	if a == nil {
		return nil, core.ErrNotLoaded
	}
	return a.Clone(), nil
}

// withTrip clones a, runs fn on the trip with tripID and returns the copy.
func withTrip(a *core.Account, tripID string, fn func(next *core.Account, t *core.Trip) error) (*core.Account, error) {
	next, err := clone(a)
	if err != nil {
		return nil, err
	}
	i := next.TripByID(tripID)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", tripID, core.ErrTripNotFound)
	}
	if err := fn(next, &next.Trips[i]); err != nil {
		return nil, err
	}
	return next, nil
}

// unionCurrencies appends codes missing from list, keeping order.
func unionCurrencies(list []string, codes ...string) []string {
	out := slices.Clone(list)
	if out == nil {
		out = []string{}
	}
	for _, c := range codes {
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// normalizeBudgets drops non-positive amounts and keeps one entry per
// category name, the last declaration winning. A disabled trip keeps none.
func normalizeBudgets(enabled bool, in []core.CategoryBudget) []core.CategoryBudget {
	out := []core.CategoryBudget{}
	if !enabled {
		return out
	}
	pos := map[string]int{}
	for _, b := range in {
		b.CategoryName = strings.TrimSpace(b.CategoryName)
		if b.Amount <= 0 || b.CategoryName == "" {
			continue
		}
		if i, ok := pos[b.CategoryName]; ok {
			out[i].Amount = b.Amount
			continue
		}
		pos[b.CategoryName] = len(out)
		out = append(out, b)
	}
	return out
}

func validationErr(field string, err error) error {
	return &core.ValidationError{Field: field, Err: err}
}
