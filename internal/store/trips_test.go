package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viaggi/internal/core"
)

func TestSetCategoryBudget(t *testing.T) {
	s := newStore()
	a, id := seed(t, s)

	a, err := s.SetCategoryBudget(a, id, "Cibo", 100)
	require.NoError(t, err)
	assert.True(t, a.Trips[0].EnableCategoryBudgets)
	a, err = s.SetCategoryBudget(a, id, "Cibo", 120)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryBudget{{CategoryName: "Cibo", Amount: 120}}, a.Trips[0].CategoryBudgets)

	a, err = s.SetCategoryBudget(a, id, "Cibo", 0)
	require.NoError(t, err)
	assert.Empty(t, a.Trips[0].CategoryBudgets)

	_, err = s.SetCategoryBudget(a, id, "Nope", 10)
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
}

func TestPreferredCurrencies(t *testing.T) {
	s := newStore()
	a, id := seed(t, s)

	a, err := s.AddPreferredCurrency(a, id, "usd")
	require.NoError(t, err)
	a, err = s.AddPreferredCurrency(a, id, "USD")
	require.NoError(t, err)
	assert.Equal(t, []string{"THB", "EUR", "USD"}, a.Trips[0].PreferredCurrencies)

	_, err = s.AddPreferredCurrency(a, id, "QQQ")
	assert.ErrorIs(t, err, core.ErrInvalidCurrency)

	_, err = s.RemovePreferredCurrency(a, id, "EUR")
	assert.ErrorIs(t, err, core.ErrMainCurrency)

	a, err = s.RemovePreferredCurrency(a, id, "THB")
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR", "USD"}, a.Trips[0].PreferredCurrencies)

	a, err = s.SetMainCurrency(a, id, "JPY")
	require.NoError(t, err)
	assert.Equal(t, "JPY", a.Trips[0].MainCurrency)
	assert.Contains(t, a.Trips[0].PreferredCurrencies, "JPY")

	// the main currency is always preferred after any of these operations
	assert.True(t, a.Trips[0].AllowsCurrency(a.Trips[0].MainCurrency))
}

func TestToggleCountry(t *testing.T) {
	s := newStore()
	a, id := seed(t, s)

	a, err := s.ToggleCountry(a, id, "Vietnam")
	require.NoError(t, err)
	assert.Equal(t, []string{"Thailandia", "Vietnam"}, a.Trips[0].Countries)
	assert.Contains(t, a.Trips[0].PreferredCurrencies, "VND")

	a, err = s.ToggleCountry(a, id, "Vietnam")
	require.NoError(t, err)
	assert.Equal(t, []string{"Thailandia"}, a.Trips[0].Countries)
	assert.Contains(t, a.Trips[0].PreferredCurrencies, "VND")
}

func TestFrequentExpenses(t *testing.T) {
	s := newStore()
	a, id := seed(t, s)

	a, f, err := s.AddFrequentExpense(a, id, core.FrequentExpenseDraft{Name: "Street food", Icon: "🥟", Category: "Cibo", Amount: 80})
	require.NoError(t, err)

	d, err := ExpenseFromTemplate(a, id, f.ID, "THB", day(3))
	require.NoError(t, err)
	assert.Equal(t, core.ExpenseDraft{Amount: 80, Currency: "THB", Category: "Cibo", Description: "Street food", Date: day(3)}, d)

	d, err = ExpenseFromTemplate(a, id, f.ID, "", day(3))
	require.NoError(t, err)
	assert.Equal(t, "EUR", d.Currency)

	next, _, err := s.AddExpense(a, id, d)
	require.NoError(t, err)
	assert.Len(t, next.Trips[0].Expenses, 1)

	_, _, err = s.AddFrequentExpense(a, id, core.FrequentExpenseDraft{Name: "x", Icon: "y", Category: "Nope", Amount: 1})
	assert.ErrorIs(t, err, core.ErrUnknownCategory)

	a, err = s.DeleteFrequentExpense(a, id, f.ID)
	require.NoError(t, err)
	assert.Empty(t, a.Trips[0].FrequentExpenses)
	_, err = ExpenseFromTemplate(a, id, f.ID, "", day(3))
	assert.ErrorIs(t, err, core.ErrTemplateNotFound)
}

func TestRemoveCurrencyInUse(t *testing.T) {
	s := newStore()
	a, id := seed(t, s)
	a, _ = addExpense(t, s, a, id, 600, "THB", "Cibo")

	_, err := s.RemovePreferredCurrency(a, id, "thb")
	assert.ErrorIs(t, err, core.ErrCurrencyInUse)
	assert.Contains(t, a.Trips[0].PreferredCurrencies, "THB")

	a, err = s.DeleteExpense(a, id, a.Trips[0].Expenses[0].ID)
	require.NoError(t, err)
	a, err = s.RemovePreferredCurrency(a, id, "THB")
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR"}, a.Trips[0].PreferredCurrencies)
}
