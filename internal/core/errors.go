package core

import "errors"

// Engine error kinds. Callers match them with errors.Is.
var (
	ErrNotLoaded               = errors.New("account snapshot not loaded")
	ErrProtectedEntity         = errors.New("default categories cannot be renamed or deleted")
	ErrMissingFallbackCategory = errors.New("fallback category missing, cannot reassign expenses")
	ErrRateNotFound            = errors.New("exchange rate not found")
	ErrRemoteFetchFailed       = errors.New("remote fetch failed")
	ErrRemotePersistFailed     = errors.New("remote persist failed")
	ErrRatePersistFailed       = errors.New("could not save updated exchange rates")

	ErrTripNotFound         = errors.New("trip not found")
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrTemplateNotFound     = errors.New("frequent expense not found")
	ErrDuplicateCategory    = errors.New("category name already exists")
	ErrUnknownCategory      = errors.New("category does not exist")
	ErrCurrencyNotPreferred = errors.New("currency is not one of the trip's preferred currencies")
	ErrMainCurrency         = errors.New("main currency cannot be removed from preferred currencies")
	ErrCurrencyInUse        = errors.New("currency is still used by expenses of the trip")
)

// Validation sentinels.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidBudget      = errors.New("total budget must be positive")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyIcon          = errors.New("empty icon")
	ErrEmptyDate          = errors.New("date cannot be zero")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidDateRange   = errors.New("end date must not be before start date")
	ErrInvalidID          = errors.New("missing or duplicate id")
)

// ValidationError reports which field was rejected. It matches both its
// specific sentinel and ErrValidation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
