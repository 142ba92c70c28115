package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"viaggi/internal/currency"
)

// RateRefresher is satisfied by *currency.RateStore.
type RateRefresher interface {
	Refresh(ctx context.Context) (currency.Table, time.Time, error)
}

// RateRefreshConfig holds configuration for the rate refresh loop
type RateRefreshConfig struct {
	// Interval between refreshes (default: 6h)
	Interval time.Duration

	// RefreshOnStart triggers one refresh as soon as the loop starts
	RefreshOnStart bool
}

func DefaultRateRefreshConfig() RateRefreshConfig {
	return RateRefreshConfig{
		Interval:       6 * time.Hour,
		RefreshOnStart: true,
	}
}

// RateRefreshLoop keeps the rate table fresh in the background.
type RateRefreshLoop struct {
	rates  RateRefresher
	config RateRefreshConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRateRefreshLoop(rates RateRefresher, config RateRefreshConfig) *RateRefreshLoop {
	if config.Interval <= 0 {
		config.Interval = DefaultRateRefreshConfig().Interval
	}
	return &RateRefreshLoop{rates: rates, config: config}
}

// Start begins the loop. Returns an error if already running.
func (l *RateRefreshLoop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("rate refresh loop is already running")
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	l.mu.Unlock()

	go l.runLoop(ctx)

	slog.InfoContext(ctx, "Rate refresh loop started", "interval", l.config.Interval)
	return nil
}

// Stop signals the loop and waits for it to finish.
func (l *RateRefreshLoop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	close(l.stopCh)

	select {
	case <-l.doneCh:
		slog.InfoContext(ctx, "Rate refresh loop stopped")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Rate refresh loop stop timed out")
		return ctx.Err()
	}

	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
	return nil
}

func (l *RateRefreshLoop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *RateRefreshLoop) runLoop(ctx context.Context) {
	defer close(l.doneCh)

	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	if l.config.RefreshOnStart {
		RefreshRates(ctx, l.rates)
	}

	for {
		select {
		case <-l.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			RefreshRates(ctx, l.rates)
		}
	}
}

// RefreshRates runs one refresh and records its outcome. A table that was
// replaced but not cached still counts as a success.
func RefreshRates(ctx context.Context, r RateRefresher) (currency.Table, time.Time, error) {
	table, at, err := r.Refresh(ctx)
	if err != nil && table == nil {
		rateRefreshTotal.WithLabelValues(statusFailure).Inc()
		slog.ErrorContext(ctx, "Failed to refresh exchange rates", "error", err)
	} else {
		rateRefreshTotal.WithLabelValues(statusSuccess).Inc()
	}
	return table, at, err
}
