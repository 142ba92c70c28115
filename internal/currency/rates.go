package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"viaggi/internal/core"
)

// DefaultRates is the bundled table used until a refresh succeeds.
func DefaultRates() Table {
	return Table{
		"EUR": 1,
		"USD": 1.08,
		"GBP": 0.85,
		"THB": 39.50,
		"VND": 27500,
		"KHR": 4400,
		"LAK": 23500,
		"MYR": 5.10,
		"SGD": 1.46,
		"IDR": 17500,
		"PHP": 63.50,
		"JPY": 168.0,
		"KRW": 1480,
		"CNY": 7.80,
	}
}

// Snapshot is the persisted form of a rate table.
type Snapshot struct {
	Rates       Table      `json:"rates"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// Cache persists the last known table across restarts.
type Cache interface {
	LoadRates(ctx context.Context) (*Snapshot, error)
	SaveRates(ctx context.Context, s Snapshot) error
}

// Fetcher obtains a fresh table. Replace StaticFetcher with a real provider.
type Fetcher interface {
	Fetch(ctx context.Context) (Table, error)
}

// StaticFetcher returns the bundled table after a simulated network delay.
type StaticFetcher struct {
	Delay time.Duration
}

func (f StaticFetcher) Fetch(ctx context.Context) (Table, error) {
	if f.Delay > 0 {
		t := time.NewTimer(f.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return DefaultRates(), nil
}

// RateStore holds the current exchange-rate table. It is offline-first: the
// last persisted table, or the bundled one, is available immediately.
type RateStore struct {
	mu          sync.RWMutex
	table       Table
	lastUpdated *time.Time

	cache    Cache
	fetcher  Fetcher
	group    singleflight.Group
	updating atomic.Bool
	now      func() time.Time
}

// NewRateStore builds a store seeded from cache when it holds a table.
// A nil cache keeps rates in memory only.
func NewRateStore(ctx context.Context, cache Cache, fetcher Fetcher) *RateStore {
	s := &RateStore{
		table:   DefaultRates(),
		cache:   cache,
		fetcher: fetcher,
		now:     time.Now,
	}
	if cache == nil {
		return s
	}
	snap, err := cache.LoadRates(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load cached exchange rates, using defaults", "error", err)
		return s
	}
	if snap != nil && len(snap.Rates) > 0 {
		s.table = snap.Rates.Clone()
		s.lastUpdated = snap.LastUpdated
		slog.InfoContext(ctx, "Loaded cached exchange rates", "currencies", len(snap.Rates))
	}
	return s
}

// Rates returns a copy of the current table and when it was last refreshed.
// lastUpdated is nil while only the bundled defaults have been used.
func (s *RateStore) Rates() (Table, *time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var lu *time.Time
	if s.lastUpdated != nil {
		t := *s.lastUpdated
		lu = &t
	}
	return s.table.Clone(), lu
}

// Updating reports whether a refresh is in flight.
func (s *RateStore) Updating() bool {
	return s.updating.Load()
}

type refreshResult struct {
	table Table
	at    time.Time
}

// Refresh fetches a new table, replaces the in-memory one and persists it.
// Concurrent callers share a single fetch. When persisting fails the new
// table is still in effect and the returned error wraps
// core.ErrRatePersistFailed.
func (s *RateStore) Refresh(ctx context.Context) (Table, time.Time, error) {
	if s.fetcher == nil {
		return nil, time.Time{}, errors.New("no rate fetcher configured")
	}
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		s.updating.Store(true)
		defer s.updating.Store(false)

		table, err := s.fetcher.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch rates: %w", err)
		}
		at := s.now()

		s.mu.Lock()
		s.table = table.Clone()
		s.lastUpdated = &at
		s.mu.Unlock()

		res := refreshResult{table: table.Clone(), at: at}
		if s.cache != nil {
			if err := s.cache.SaveRates(ctx, Snapshot{Rates: table.Clone(), LastUpdated: &at}); err != nil {
				return res, fmt.Errorf("%w: %v", core.ErrRatePersistFailed, err)
			}
		}
		return res, nil
	})
	res, ok := v.(refreshResult)
	if !ok {
		return nil, time.Time{}, err
	}
	if err != nil {
		slog.WarnContext(ctx, "Exchange rates updated but not saved", "error", err)
	} else {
		slog.InfoContext(ctx, "Exchange rates refreshed", "currencies", len(res.table), "at", res.at)
	}
	return res.table.Clone(), res.at, err
}
