package core

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type (
	Category struct {
		ID   string `json:"id"`
		Name string `json:"name" validate:"required"`
		Icon string `json:"icon" validate:"required"`
	}

	// CategoryBudget caps spending for one category inside a trip.
	// CategoryName is a weak reference to Category.Name.
	CategoryBudget struct {
		CategoryName string  `json:"categoryName" validate:"required"`
		Amount       float64 `json:"amount" validate:"gt=0"`
	}

	// FrequentExpense is a reusable expense template owned by a trip.
	FrequentExpense struct {
		ID       string  `json:"id"`
		Name     string  `json:"name" validate:"required"`
		Icon     string  `json:"icon" validate:"required"`
		Category string  `json:"category" validate:"required"`
		Amount   float64 `json:"amount" validate:"gt=0"`
	}

	Expense struct {
		ID          string    `json:"id"`
		Amount      float64   `json:"amount" validate:"gt=0"`
		Currency    string    `json:"currency" validate:"required,iso4217"`
		Category    string    `json:"category" validate:"required"` // weak reference to Category.Name
		Description string    `json:"description" validate:"required,max=200"`
		Date        time.Time `json:"date"`
		Country     string    `json:"country,omitempty"`
	}

	Trip struct {
		ID                    string            `json:"id"`
		Name                  string            `json:"name" validate:"required"`
		StartDate             time.Time         `json:"startDate"`
		EndDate               time.Time         `json:"endDate"`
		TotalBudget           float64           `json:"totalBudget" validate:"gt=0"`
		Countries             []string          `json:"countries"`
		PreferredCurrencies   []string          `json:"preferredCurrencies" validate:"dive,iso4217"`
		MainCurrency          string            `json:"mainCurrency" validate:"required,iso4217"`
		Expenses              []Expense         `json:"expenses"`
		FrequentExpenses      []FrequentExpense `json:"frequentExpenses"`
		EnableCategoryBudgets bool              `json:"enableCategoryBudgets"`
		CategoryBudgets       []CategoryBudget  `json:"categoryBudgets"`
	}

	// Account is the snapshot root: everything one account key owns.
	Account struct {
		Trips      []Trip     `json:"trips"`
		Categories []Category `json:"categories"`
	}
)

// Drafts carry the caller-provided fields of an entity before an id exists.
type (
	TripDraft struct {
		Name                  string            `json:"name"`
		StartDate             time.Time         `json:"startDate"`
		EndDate               time.Time         `json:"endDate"`
		TotalBudget           float64           `json:"totalBudget"`
		Countries             []string          `json:"countries"`
		MainCurrency          string            `json:"mainCurrency"`
		PreferredCurrencies   []string          `json:"preferredCurrencies"`
		FrequentExpenses      []FrequentExpense `json:"frequentExpenses"`
		EnableCategoryBudgets bool              `json:"enableCategoryBudgets"`
		CategoryBudgets       []CategoryBudget  `json:"categoryBudgets"`
	}

	ExpenseDraft struct {
		Amount      float64   `json:"amount"`
		Currency    string    `json:"currency"`
		Category    string    `json:"category"`
		Description string    `json:"description"`
		Date        time.Time `json:"date"`
		Country     string    `json:"country"`
	}

	CategoryDraft struct {
		Name string `json:"name"`
		Icon string `json:"icon"`
	}

	FrequentExpenseDraft struct {
		Name     string  `json:"name"`
		Icon     string  `json:"icon"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldErrors maps a failing struct field to the sentinel reported to callers.
var fieldErrors = map[string]error{
	"Amount":              ErrInvalidAmount,
	"TotalBudget":         ErrInvalidBudget,
	"Currency":            ErrInvalidCurrency,
	"MainCurrency":        ErrInvalidCurrency,
	"PreferredCurrencies": ErrInvalidCurrency,
	"Category":            ErrEmptyCategory,
	"CategoryName":        ErrEmptyCategory,
	"Description":         ErrEmptyDescription,
	"Name":                ErrEmptyName,
	"Icon":                ErrEmptyIcon,
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.StructField()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	sentinel, ok := fieldErrors[field]
	if !ok {
		sentinel = errors.New(strings.ToLower(field) + " failed " + fe.Tag())
	}
	if field == "Description" && fe.Tag() == "max" {
		sentinel = ErrDescriptionTooLong
	}
	return &ValidationError{Field: fe.Field(), Err: sentinel}
}

func (c Category) Validate() error {
	return check(c)
}

func (b CategoryBudget) Validate() error {
	return check(b)
}

func (f FrequentExpense) Validate() error {
	return check(f)
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrEmptyDate}
	}
	return check(e)
}

func (t Trip) Validate() error {
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return &ValidationError{Field: "startDate", Err: ErrEmptyDate}
	}
	if t.EndDate.Before(t.StartDate) {
		return &ValidationError{Field: "endDate", Err: ErrInvalidDateRange}
	}
	return check(t)
}

// AllowsCurrency reports whether code is one of the trip's preferred currencies.
func (t Trip) AllowsCurrency(code string) bool {
	return slices.Contains(t.PreferredCurrencies, code)
}

// ExpenseByID returns the index of the expense with the given id, or -1.
func (t Trip) ExpenseByID(id string) int {
	for i := range t.Expenses {
		if t.Expenses[i].ID == id {
			return i
		}
	}
	return -1
}

// TripByID returns the index of the trip with the given id, or -1.
func (a Account) TripByID(id string) int {
	for i := range a.Trips {
		if a.Trips[i].ID == id {
			return i
		}
	}
	return -1
}

// CategoryByID returns the index of the category with the given id, or -1.
func (a Account) CategoryByID(id string) int {
	for i := range a.Categories {
		if a.Categories[i].ID == id {
			return i
		}
	}
	return -1
}

// CategoryByName resolves a weak category reference. The second result is
// false when no category carries that name, i.e. the reference is stale.
func (a Account) CategoryByName(name string) (Category, bool) {
	for _, c := range a.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// StaleCategoryRefs lists the category names referenced by the trip's
// expenses, templates and budgets that no longer match any category.
func (a Account) StaleCategoryRefs(t Trip) []string {
	seen := map[string]struct{}{}
	var out []string
	mark := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		if _, ok := a.CategoryByName(name); !ok {
			out = append(out, name)
		}
	}
	for _, e := range t.Expenses {
		mark(e.Category)
	}
	for _, f := range t.FrequentExpenses {
		mark(f.Category)
	}
	for _, b := range t.CategoryBudgets {
		mark(b.CategoryName)
	}
	return out
}

// Clone returns a deep copy, so a new snapshot never aliases the old one.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := &Account{
		Trips:      make([]Trip, len(a.Trips)),
		Categories: slices.Clone(a.Categories),
	}
	for i, t := range a.Trips {
		out.Trips[i] = t.Clone()
	}
	return out
}

func (t Trip) Clone() Trip {
	t.Countries = slices.Clone(t.Countries)
	t.PreferredCurrencies = slices.Clone(t.PreferredCurrencies)
	t.Expenses = slices.Clone(t.Expenses)
	t.FrequentExpenses = slices.Clone(t.FrequentExpenses)
	t.CategoryBudgets = slices.Clone(t.CategoryBudgets)
	return t
}

// ValidCurrency reports whether code is an ISO 4217 currency code.
func ValidCurrency(code string) bool {
	return validate.Var(code, "iso4217") == nil
}
