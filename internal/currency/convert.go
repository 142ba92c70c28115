// Package currency converts amounts through the EUR pivot and keeps the
// exchange-rate table used to do it.
package currency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"viaggi/internal/core"
)

// Pivot is the currency every rate in a Table is quoted against.
const Pivot = "EUR"

// Table maps a currency code to units of that currency per one EUR.
type Table map[string]float64

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Convert moves amount from one currency to another through the pivot.
// When either rate is missing the original amount is returned together with
// core.ErrRateNotFound so callers can decide how to degrade.
func Convert(amount float64, from, to string, table Table) (float64, error) {
	if from == to {
		return amount, nil
	}
	fromRate, ok := table[from]
	if !ok || fromRate <= 0 {
		return amount, fmt.Errorf("%s: %w", from, core.ErrRateNotFound)
	}
	toRate, ok := table[to]
	if !ok || toRate <= 0 {
		return amount, fmt.Errorf("%s: %w", to, core.ErrRateNotFound)
	}
	return amount / fromRate * toRate, nil
}

// RateSource yields the table a Converter should use.
type RateSource interface {
	Rates() (Table, *time.Time)
}

// Converter converts using the current table of a RateSource and never
// fails: a missing rate is logged and the amount passes through unconverted.
type Converter struct {
	src    RateSource
	logger *slog.Logger
}

func NewConverter(src RateSource, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{src: src, logger: logger}
}

func (c *Converter) Convert(amount float64, from, to string) float64 {
	table, _ := c.src.Rates()
	v, err := Convert(amount, from, to, table)
	if err != nil {
		c.logger.LogAttrs(context.Background(), slog.LevelWarn, "Conversion skipped, rate unavailable",
			slog.String("from", from),
			slog.String("to", to),
			slog.Float64("amount", amount),
			slog.String("error", err.Error()))
	}
	return v
}
