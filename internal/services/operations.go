package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"viaggi/internal/core"
	"viaggi/internal/store"
)

// apply runs a mutation that also yields the entity it produced.
func apply[T any](ctx context.Context, e *SyncEngine, op string, fn func(*core.Account) (*core.Account, T, error)) (T, error) {
	var out T
	_, err := e.Apply(ctx, func(a *core.Account) (*core.Account, error) {
		next, v, err := fn(a)
		out = v
		return next, err
	})
	recordMutation(op, err)
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (e *SyncEngine) run(ctx context.Context, op string, m Mutation) error {
	_, err := e.Apply(ctx, m)
	recordMutation(op, err)
	return err
}

func (e *SyncEngine) AddTrip(ctx context.Context, d core.TripDraft) (core.Trip, error) {
	return apply(ctx, e, "add_trip", func(a *core.Account) (*core.Account, core.Trip, error) {
		return e.store.AddTrip(a, d)
	})
}

func (e *SyncEngine) UpdateTrip(ctx context.Context, t core.Trip) error {
	return e.run(ctx, "update_trip", func(a *core.Account) (*core.Account, error) {
		return e.store.UpdateTrip(a, t)
	})
}

// EditTrip applies edit to the current version of a trip and stores the
// result, so concurrent expense changes are not overwritten.
func (e *SyncEngine) EditTrip(ctx context.Context, tripID string, edit func(*core.Trip)) (core.Trip, error) {
	return apply(ctx, e, "update_trip", func(a *core.Account) (*core.Account, core.Trip, error) {
		i := a.TripByID(tripID)
		if i < 0 {
			return nil, core.Trip{}, fmt.Errorf("%s: %w", tripID, core.ErrTripNotFound)
		}
		t := a.Trips[i].Clone()
		edit(&t)
		t.ID = tripID
		next, err := e.store.UpdateTrip(a, t)
		if err != nil {
			return nil, core.Trip{}, err
		}
		return next, next.Trips[next.TripByID(tripID)], nil
	})
}

// DeleteTrip also clears the remembered active trip when it pointed here.
func (e *SyncEngine) DeleteTrip(ctx context.Context, tripID string) error {
	err := e.run(ctx, "delete_trip", func(a *core.Account) (*core.Account, error) {
		return e.store.DeleteTrip(a, tripID)
	})
	if err != nil {
		return err
	}
	if e.trips != nil {
		if err := e.trips.ClearActiveTripIf(ctx, tripID); err != nil {
			slog.WarnContext(ctx, "Failed to clear active trip", "trip_id", tripID, "error", err)
		}
	}
	return nil
}

func (e *SyncEngine) SetCategoryBudget(ctx context.Context, tripID, categoryName string, amount float64) error {
	return e.run(ctx, "set_category_budget", func(a *core.Account) (*core.Account, error) {
		return e.store.SetCategoryBudget(a, tripID, categoryName, amount)
	})
}

func (e *SyncEngine) AddPreferredCurrency(ctx context.Context, tripID, code string) error {
	return e.run(ctx, "add_preferred_currency", func(a *core.Account) (*core.Account, error) {
		return e.store.AddPreferredCurrency(a, tripID, code)
	})
}

func (e *SyncEngine) RemovePreferredCurrency(ctx context.Context, tripID, code string) error {
	return e.run(ctx, "remove_preferred_currency", func(a *core.Account) (*core.Account, error) {
		return e.store.RemovePreferredCurrency(a, tripID, code)
	})
}

func (e *SyncEngine) SetMainCurrency(ctx context.Context, tripID, code string) error {
	return e.run(ctx, "set_main_currency", func(a *core.Account) (*core.Account, error) {
		return e.store.SetMainCurrency(a, tripID, code)
	})
}

func (e *SyncEngine) ToggleCountry(ctx context.Context, tripID, country string) error {
	return e.run(ctx, "toggle_country", func(a *core.Account) (*core.Account, error) {
		return e.store.ToggleCountry(a, tripID, country)
	})
}

func (e *SyncEngine) AddExpense(ctx context.Context, tripID string, d core.ExpenseDraft) (core.Expense, error) {
	return apply(ctx, e, "add_expense", func(a *core.Account) (*core.Account, core.Expense, error) {
		return e.store.AddExpense(a, tripID, d)
	})
}

func (e *SyncEngine) UpdateExpense(ctx context.Context, tripID string, x core.Expense) error {
	return e.run(ctx, "update_expense", func(a *core.Account) (*core.Account, error) {
		return e.store.UpdateExpense(a, tripID, x)
	})
}

func (e *SyncEngine) DeleteExpense(ctx context.Context, tripID, expenseID string) error {
	return e.run(ctx, "delete_expense", func(a *core.Account) (*core.Account, error) {
		return e.store.DeleteExpense(a, tripID, expenseID)
	})
}

func (e *SyncEngine) AddFrequentExpense(ctx context.Context, tripID string, d core.FrequentExpenseDraft) (core.FrequentExpense, error) {
	return apply(ctx, e, "add_frequent_expense", func(a *core.Account) (*core.Account, core.FrequentExpense, error) {
		return e.store.AddFrequentExpense(a, tripID, d)
	})
}

func (e *SyncEngine) DeleteFrequentExpense(ctx context.Context, tripID, templateID string) error {
	return e.run(ctx, "delete_frequent_expense", func(a *core.Account) (*core.Account, error) {
		return e.store.DeleteFrequentExpense(a, tripID, templateID)
	})
}

// UseFrequentExpense records an expense from a template in one mutation.
// An empty currency means the trip's main currency.
func (e *SyncEngine) UseFrequentExpense(ctx context.Context, tripID, templateID, currency string, date time.Time) (core.Expense, error) {
	return apply(ctx, e, "use_frequent_expense", func(a *core.Account) (*core.Account, core.Expense, error) {
		d, err := store.ExpenseFromTemplate(a, tripID, templateID, currency, date)
		if err != nil {
			return nil, core.Expense{}, err
		}
		return e.store.AddExpense(a, tripID, d)
	})
}

func (e *SyncEngine) AddCategory(ctx context.Context, d core.CategoryDraft) (core.Category, error) {
	return apply(ctx, e, "add_category", func(a *core.Account) (*core.Account, core.Category, error) {
		return e.store.AddCategory(a, d)
	})
}

func (e *SyncEngine) UpdateCategory(ctx context.Context, c core.Category) error {
	return e.run(ctx, "update_category", func(a *core.Account) (*core.Account, error) {
		return e.store.UpdateCategory(a, c)
	})
}

func (e *SyncEngine) DeleteCategory(ctx context.Context, id string) error {
	return e.run(ctx, "delete_category", func(a *core.Account) (*core.Account, error) {
		return e.store.DeleteCategory(a, id)
	})
}
