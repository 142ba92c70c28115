// Package core provides the travel account model and amount handling.
//
// This file contains functions for parsing user-entered amounts and rounding
// derived figures for display.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// surrounding whitespace. Signs, thousands separators and zero are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	v, _ := d.Float64()
	return v, nil
}

// RoundAmount rounds half away from zero to the given number of decimals.
// Only presentation layers should round; the engine keeps full precision.
func RoundAmount(v float64, places int32) float64 {
	r, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return r
}

// FormatAmount renders v with two decimals and the currency code, e.g.
// "142.59 EUR".
func FormatAmount(v float64, currency string) string {
	return decimal.NewFromFloat(v).StringFixed(2) + " " + currency
}
