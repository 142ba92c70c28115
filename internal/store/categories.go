package store

import (
	"fmt"
	"slices"
	"strings"

	"viaggi/internal/core"
)

func nameTaken(a *core.Account, name, exceptID string) bool {
	for _, c := range a.Categories {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// AddCategory creates a custom category.
func (s *Store) AddCategory(a *core.Account, d core.CategoryDraft) (*core.Account, core.Category, error) {
	next, err := clone(a)
	if err != nil {
		return nil, core.Category{}, err
	}
	c := core.Category{
		ID:   core.CustomCategoryPrefix + s.ids.NewID(),
		Name: strings.TrimSpace(d.Name),
		Icon: strings.TrimSpace(d.Icon),
	}
	if err := c.Validate(); err != nil {
		return nil, core.Category{}, err
	}
	if nameTaken(next, c.Name, "") {
		return nil, core.Category{}, fmt.Errorf("%s: %w", c.Name, core.ErrDuplicateCategory)
	}
	next.Categories = append(next.Categories, c)
	return next, c, nil
}

// UpdateCategory edits a custom category. A rename is applied to every
// expense, template and budget referencing the old name in the same step.
func (s *Store) UpdateCategory(a *core.Account, c core.Category) (*core.Account, error) {
	next, err := clone(a)
	if err != nil {
		return nil, err
	}
	i := next.CategoryByID(c.ID)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", c.ID, core.ErrCategoryNotFound)
	}
	if core.IsDefaultCategory(c.ID) {
		return nil, core.ErrProtectedEntity
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Icon = strings.TrimSpace(c.Icon)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if nameTaken(next, c.Name, c.ID) {
		return nil, fmt.Errorf("%s: %w", c.Name, core.ErrDuplicateCategory)
	}
	old := next.Categories[i].Name
	next.Categories[i] = c
	if old != c.Name {
		retarget(next, old, c.Name, false)
	}
	return next, nil
}

// DeleteCategory removes a custom category. Its expenses and templates move
// to the fallback category and its budgets are dropped.
func (s *Store) DeleteCategory(a *core.Account, id string) (*core.Account, error) {
	next, err := clone(a)
	if err != nil {
		return nil, err
	}
	i := next.CategoryByID(id)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", id, core.ErrCategoryNotFound)
	}
	if core.IsDefaultCategory(id) {
		return nil, core.ErrProtectedEntity
	}
	fb := next.CategoryByID(core.FallbackCategoryID)
	if fb < 0 {
		return nil, core.ErrMissingFallbackCategory
	}
	name := next.Categories[i].Name
	retarget(next, name, next.Categories[fb].Name, true)
	next.Categories = slices.Delete(next.Categories, i, i+1)
	return next, nil
}

// retarget rewrites every reference to from. Budgets are renamed, or
// dropped when dropBudgets is set. A rename onto a name that already has a
// budget merges the two, the later declaration winning.
func retarget(a *core.Account, from, to string, dropBudgets bool) {
	for ti := range a.Trips {
		t := &a.Trips[ti]
		for j := range t.Expenses {
			if t.Expenses[j].Category == from {
				t.Expenses[j].Category = to
			}
		}
		for j := range t.FrequentExpenses {
			if t.FrequentExpenses[j].Category == from {
				t.FrequentExpenses[j].Category = to
			}
		}
		if dropBudgets {
			t.CategoryBudgets = slices.DeleteFunc(t.CategoryBudgets, func(b core.CategoryBudget) bool { return b.CategoryName == from })
			continue
		}
		renamed := false
		for j := range t.CategoryBudgets {
			if t.CategoryBudgets[j].CategoryName == from {
				t.CategoryBudgets[j].CategoryName = to
				renamed = true
			}
		}
		if renamed {
			t.CategoryBudgets = normalizeBudgets(t.EnableCategoryBudgets, t.CategoryBudgets)
		}
	}
}
