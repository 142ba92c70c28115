// Package services owns the running session: the current account snapshot,
// its persistence to the remote store and the periodic rate refresh.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"viaggi/internal/core"
	"viaggi/internal/remote"
	"viaggi/internal/store"
)

// Mutation turns one snapshot into the next. It must not modify its input.
type Mutation func(*core.Account) (*core.Account, error)

// Persister ships a snapshot to the remote store, directly or via a queue.
type Persister interface {
	Persist(ctx context.Context, key string, version int64, a *core.Account) error
}

// ActiveTripClearer forgets the remembered trip when it is deleted.
type ActiveTripClearer interface {
	ClearActiveTripIf(ctx context.Context, id string) error
}

type Option func(*SyncEngine)

// WithErrorHandler registers a callback for background persistence failures.
func WithErrorHandler(fn func(error)) Option {
	return func(e *SyncEngine) { e.onError = fn }
}

func WithActiveTripClearer(c ActiveTripClearer) Option {
	return func(e *SyncEngine) { e.trips = c }
}

func WithClock(now func() time.Time) Option {
	return func(e *SyncEngine) { e.now = now }
}

// SyncEngine holds one account session. Mutations are applied to the
// in-memory snapshot synchronously and saved in the background without
// retry or rollback.
type SyncEngine struct {
	key       string
	reader    remote.SnapshotReader
	persister Persister
	store     *store.Store
	onError   func(error)
	trips     ActiveTripClearer
	now       func() time.Time

	mu      sync.RWMutex
	snap    *core.Account
	version int64
	loading bool
	lastErr error

	// persistMu serialises saves; lastSaved is the newest version written.
	persistMu sync.Mutex
	lastSaved int64
	wg        sync.WaitGroup
}

func NewSyncEngine(key string, reader remote.SnapshotReader, p Persister, s *store.Store, opts ...Option) *SyncEngine {
	if s == nil {
		s = store.New(nil)
	}
	e := &SyncEngine{
		key:       key,
		reader:    reader,
		persister: p,
		store:     s,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the account. A missing account starts from the default
// snapshot; so does a failed fetch, which is also returned and retained.
func (e *SyncEngine) Load(ctx context.Context) error {
	e.mu.Lock()
	e.loading = true
	e.mu.Unlock()

	a, err := e.reader.Fetch(ctx, e.key)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrRemoteFetchFailed, err)
		e.snap = core.DefaultAccount()
		e.lastErr = err
		slog.ErrorContext(ctx, "Failed to load account, starting from defaults", "error", err)
		return err
	}
	e.snap = store.Normalize(a)
	e.lastErr = nil
	slog.InfoContext(ctx, "Account loaded",
		"trips", len(e.snap.Trips),
		"categories", len(e.snap.Categories),
		"new_account", a == nil)
	return nil
}

// nextVersion stays monotonic across restarts so stale queued snapshots
// from an earlier process are still recognised as older.
func (e *SyncEngine) nextVersion() int64 {
	return max(e.version+1, e.now().UnixNano())
}

// ApplyLocally runs m against the current snapshot and publishes the result.
// Nothing changes when m fails.
func (e *SyncEngine) ApplyLocally(m Mutation) (*core.Account, int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap == nil {
		return nil, 0, core.ErrNotLoaded
	}
	next, err := m(e.snap)
	if err != nil {
		return nil, 0, err
	}
	e.version = e.nextVersion()
	e.snap = next
	return next, e.version, nil
}

// Persist saves snap in the background. The channel receives the outcome
// once: nil on success or when a newer version was already saved.
func (e *SyncEngine) Persist(ctx context.Context, snap *core.Account, version int64) <-chan error {
	done := make(chan error, 1)
	ctx = context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		done <- e.persist(ctx, snap, version)
	}()
	return done
}

func (e *SyncEngine) persist(ctx context.Context, snap *core.Account, version int64) error {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	if version <= e.lastSaved {
		persistTotal.WithLabelValues(statusSkipped).Inc()
		slog.DebugContext(ctx, "Skipping superseded snapshot", "version", version, "saved_version", e.lastSaved)
		return nil
	}

	start := time.Now()
	err := e.persister.Persist(ctx, e.key, version, snap)
	persistDuration.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		persistTotal.WithLabelValues(statusFailure).Inc()
		err = fmt.Errorf("%w: %w", core.ErrRemotePersistFailed, err)
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
		slog.ErrorContext(ctx, "Failed to persist snapshot", "version", version, "error", err)
		if e.onError != nil {
			e.onError(err)
		}
		return err
	}

	persistTotal.WithLabelValues(statusSuccess).Inc()
	e.lastSaved = version
	e.mu.Lock()
	if errors.Is(e.lastErr, core.ErrRemotePersistFailed) || errors.Is(e.lastErr, core.ErrRemoteFetchFailed) {
		e.lastErr = nil
	}
	e.mu.Unlock()
	return nil
}

// Apply is ApplyLocally followed by a background Persist.
func (e *SyncEngine) Apply(ctx context.Context, m Mutation) (*core.Account, error) {
	next, version, err := e.ApplyLocally(m)
	if err != nil {
		return nil, err
	}
	e.Persist(ctx, next, version)
	return next, nil
}

// Snapshot returns the current account, or nil before Load.
func (e *SyncEngine) Snapshot() *core.Account {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

func (e *SyncEngine) Loading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

func (e *SyncEngine) LastError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// Wait blocks until every in-flight save has finished.
func (e *SyncEngine) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
