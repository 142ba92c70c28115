package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viaggi/internal/amqp"
	"viaggi/internal/core"
	"viaggi/internal/remote/memory"
	"viaggi/internal/store"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type failingReader struct{}

func (failingReader) Fetch(context.Context, string) (*core.Account, error) {
	return nil, errors.New("connection refused")
}

// gatedReader holds Fetch until release is closed.
type gatedReader struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func newGatedReader(err error) *gatedReader {
	return &gatedReader{started: make(chan struct{}), release: make(chan struct{}), err: err}
}

func (g *gatedReader) Fetch(context.Context, string) (*core.Account, error) {
	close(g.started)
	<-g.release
	return nil, g.err
}

// recordingPersister keeps the versions it was asked to save.
type recordingPersister struct {
	mu       sync.Mutex
	versions []int64
	err      error
	block    chan struct{}
}

func (p *recordingPersister) Persist(_ context.Context, _ string, version int64, _ *core.Account) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.versions = append(p.versions, version)
	return p.err
}

func (p *recordingPersister) saved() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.versions...)
}

type clearer struct{ cleared []string }

func (c *clearer) ClearActiveTripIf(_ context.Context, id string) error {
	c.cleared = append(c.cleared, id)
	return nil
}

func day(d int) time.Time {
	return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC)
}

func tripDraft() core.TripDraft {
	return core.TripDraft{
		Name:                "Giappone",
		StartDate:           day(1),
		EndDate:             day(14),
		TotalBudget:         2000,
		Countries:           []string{"Giappone"},
		MainCurrency:        "EUR",
		PreferredCurrencies: []string{"JPY"},
	}
}

func newEngine(t *testing.T, opts ...Option) (*SyncEngine, *memory.Store) {
	t.Helper()
	remote := memory.New()
	e := NewSyncEngine("acct", remote, DirectPersister{Remote: remote}, store.New(&seqIDs{}), opts...)
	require.NoError(t, e.Load(context.Background()))
	return e, remote
}

func waitSaves(t *testing.T, e *SyncEngine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Wait(ctx))
}

func TestLoadNewAccountStartsFromDefaults(t *testing.T) {
	e, _ := newEngine(t)

	snap := e.Snapshot()
	require.NotNil(t, snap)
	assert.Empty(t, snap.Trips)
	assert.Len(t, snap.Categories, len(core.DefaultCategories()))
	assert.False(t, e.Loading())
	assert.NoError(t, e.LastError())
}

func TestLoadFailureFallsBackToDefaults(t *testing.T) {
	e := NewSyncEngine("acct", failingReader{}, &recordingPersister{}, nil)

	err := e.Load(context.Background())
	require.ErrorIs(t, err, core.ErrRemoteFetchFailed)
	assert.ErrorIs(t, e.LastError(), core.ErrRemoteFetchFailed)
	require.NotNil(t, e.Snapshot())
	assert.Empty(t, e.Snapshot().Trips)
}

func TestLoadingWhileFetchInFlight(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"failure", errors.New("connection refused")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := newGatedReader(tc.err)
			e := NewSyncEngine("acct", g, &recordingPersister{}, nil)

			done := make(chan error, 1)
			go func() { done <- e.Load(context.Background()) }()
			<-g.started

			assert.True(t, e.Loading())
			assert.Nil(t, e.Snapshot())
			_, err := e.AddTrip(context.Background(), tripDraft())
			assert.ErrorIs(t, err, core.ErrNotLoaded)

			close(g.release)
			err = <-done
			if tc.err != nil {
				assert.ErrorIs(t, err, core.ErrRemoteFetchFailed)
				assert.ErrorIs(t, e.LastError(), core.ErrRemoteFetchFailed)
			} else {
				assert.NoError(t, err)
				assert.NoError(t, e.LastError())
			}
			assert.False(t, e.Loading())
			require.NotNil(t, e.Snapshot())
		})
	}
}

func TestMutationBeforeLoadIsRejected(t *testing.T) {
	e := NewSyncEngine("acct", memory.New(), &recordingPersister{}, nil)

	_, err := e.AddTrip(context.Background(), tripDraft())
	assert.ErrorIs(t, err, core.ErrNotLoaded)
	assert.Nil(t, e.Snapshot())
}

func TestLoadRestoresSavedAccount(t *testing.T) {
	e, remote := newEngine(t)
	trip, err := e.AddTrip(context.Background(), tripDraft())
	require.NoError(t, err)
	waitSaves(t, e)

	again := NewSyncEngine("acct", remote, DirectPersister{Remote: remote}, nil)
	require.NoError(t, again.Load(context.Background()))
	require.Len(t, again.Snapshot().Trips, 1)
	assert.Equal(t, trip.ID, again.Snapshot().Trips[0].ID)
}

func TestApplyPublishesBeforeSave(t *testing.T) {
	p := &recordingPersister{block: make(chan struct{})}
	e := NewSyncEngine("acct", memory.New(), p, store.New(&seqIDs{}))
	require.NoError(t, e.Load(context.Background()))

	_, err := e.AddTrip(context.Background(), tripDraft())
	require.NoError(t, err)
	assert.Len(t, e.Snapshot().Trips, 1)
	assert.Empty(t, p.saved())

	close(p.block)
	waitSaves(t, e)
	assert.Len(t, p.saved(), 1)
}

func TestFailedMutationLeavesSnapshotUntouched(t *testing.T) {
	e, remote := newEngine(t)
	before := e.Snapshot()

	err := e.DeleteCategory(context.Background(), core.FallbackCategoryID)
	require.ErrorIs(t, err, core.ErrProtectedEntity)
	assert.Same(t, before, e.Snapshot())
	waitSaves(t, e)
	assert.Zero(t, remote.Saves())
}

func TestUpdateTripRejectsForgedExpense(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	trip, err := e.AddTrip(ctx, tripDraft())
	require.NoError(t, err)
	x, err := e.AddExpense(ctx, trip.ID, core.ExpenseDraft{
		Amount: 10, Currency: "EUR", Category: "Cibo", Description: "Ramen", Date: day(2),
	})
	require.NoError(t, err)
	before := e.Snapshot()

	edited := before.Trips[0].Clone()
	edited.Expenses = append(edited.Expenses, core.Expense{
		ID: x.ID, Amount: -5, Currency: "XXX", Category: "Nope", Date: day(3),
	})
	require.ErrorIs(t, e.UpdateTrip(ctx, edited), core.ErrInvalidID)
	assert.Same(t, before, e.Snapshot())
	assert.Len(t, e.Snapshot().Trips[0].Expenses, 1)
}

func TestPersistFailureIsRetainedAndReported(t *testing.T) {
	var reported []error
	remote := memory.New()
	remote.FailSaves = errors.New("quota exceeded")
	e := NewSyncEngine("acct", remote, DirectPersister{Remote: remote}, nil,
		WithErrorHandler(func(err error) { reported = append(reported, err) }))
	require.NoError(t, e.Load(context.Background()))

	_, err := e.AddTrip(context.Background(), tripDraft())
	require.NoError(t, err)
	waitSaves(t, e)

	assert.Len(t, e.Snapshot().Trips, 1, "local state is not rolled back")
	assert.ErrorIs(t, e.LastError(), core.ErrRemotePersistFailed)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], core.ErrRemotePersistFailed)
}

func TestPersistChannelReportsOutcome(t *testing.T) {
	p := &recordingPersister{err: errors.New("boom")}
	e := NewSyncEngine("acct", memory.New(), p, nil)
	require.NoError(t, e.Load(context.Background()))

	snap, version, err := e.ApplyLocally(func(a *core.Account) (*core.Account, error) { return a.Clone(), nil })
	require.NoError(t, err)

	err = <-e.Persist(context.Background(), snap, version)
	assert.ErrorIs(t, err, core.ErrRemotePersistFailed)
}

func TestPersistSkipsSupersededVersion(t *testing.T) {
	p := &recordingPersister{}
	e := NewSyncEngine("acct", memory.New(), p, nil)
	require.NoError(t, e.Load(context.Background()))
	snap := e.Snapshot()

	require.NoError(t, <-e.Persist(context.Background(), snap, 20))
	require.NoError(t, <-e.Persist(context.Background(), snap, 10))

	assert.Equal(t, []int64{20}, p.saved())
}

func TestVersionsIncrease(t *testing.T) {
	fixed := time.Unix(0, 100)
	e, _ := newEngine(t, WithClock(func() time.Time { return fixed }))

	_, v1, err := e.ApplyLocally(func(a *core.Account) (*core.Account, error) { return a.Clone(), nil })
	require.NoError(t, err)
	_, v2, err := e.ApplyLocally(func(a *core.Account) (*core.Account, error) { return a.Clone(), nil })
	require.NoError(t, err)

	assert.Equal(t, int64(100), v1)
	assert.Equal(t, int64(101), v2)
}

func TestDeleteTripClearsActiveTrip(t *testing.T) {
	c := &clearer{}
	e, _ := newEngine(t, WithActiveTripClearer(c))
	trip, err := e.AddTrip(context.Background(), tripDraft())
	require.NoError(t, err)

	require.NoError(t, e.DeleteTrip(context.Background(), trip.ID))
	assert.Equal(t, []string{trip.ID}, c.cleared)
	assert.Empty(t, e.Snapshot().Trips)

	err = e.DeleteTrip(context.Background(), trip.ID)
	assert.ErrorIs(t, err, core.ErrTripNotFound)
	assert.Len(t, c.cleared, 1)
}

func TestUseFrequentExpense(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	trip, err := e.AddTrip(ctx, tripDraft())
	require.NoError(t, err)
	tpl, err := e.AddFrequentExpense(ctx, trip.ID, core.FrequentExpenseDraft{
		Name: "Ramen", Icon: "🍜", Category: "Cibo", Amount: 1200,
	})
	require.NoError(t, err)

	x, err := e.UseFrequentExpense(ctx, trip.ID, tpl.ID, "JPY", day(3))
	require.NoError(t, err)
	assert.Equal(t, "Ramen", x.Description)
	assert.Equal(t, "JPY", x.Currency)
	assert.Equal(t, 1200.0, x.Amount)

	_, err = e.UseFrequentExpense(ctx, trip.ID, "missing", "", day(3))
	assert.ErrorIs(t, err, core.ErrTemplateNotFound)
	assert.Len(t, e.Snapshot().Trips[0].Expenses, 1)
}

func TestWrappersRoundTrip(t *testing.T) {
	e, remote := newEngine(t)
	ctx := context.Background()

	trip, err := e.AddTrip(ctx, tripDraft())
	require.NoError(t, err)
	cat, err := e.AddCategory(ctx, core.CategoryDraft{Name: "Onsen", Icon: "♨️"})
	require.NoError(t, err)
	require.NoError(t, e.SetCategoryBudget(ctx, trip.ID, "Onsen", 150))
	x, err := e.AddExpense(ctx, trip.ID, core.ExpenseDraft{
		Amount: 3000, Currency: "JPY", Category: "Onsen", Description: "Hakone", Date: day(4),
	})
	require.NoError(t, err)
	cat.Name = "Terme"
	require.NoError(t, e.UpdateCategory(ctx, cat))
	require.NoError(t, e.AddPreferredCurrency(ctx, trip.ID, "usd"))
	require.NoError(t, e.RemovePreferredCurrency(ctx, trip.ID, "USD"))
	require.ErrorIs(t, e.RemovePreferredCurrency(ctx, trip.ID, "EUR"), core.ErrMainCurrency)
	require.NoError(t, e.ToggleCountry(ctx, trip.ID, "Corea del Sud"))
	waitSaves(t, e)

	saved, err := remote.Fetch(ctx, "acct")
	require.NoError(t, err)
	got := saved.Trips[0]
	assert.Equal(t, "Terme", got.Expenses[0].Category)
	assert.Equal(t, x.ID, got.Expenses[0].ID)
	assert.Equal(t, "Terme", got.CategoryBudgets[0].CategoryName)
	assert.Contains(t, got.Countries, "Corea del Sud")
	assert.NotContains(t, got.PreferredCurrencies, "USD")

	require.NoError(t, e.DeleteCategory(ctx, cat.ID))
	require.NoError(t, e.DeleteExpense(ctx, trip.ID, x.ID))
	assert.Empty(t, e.Snapshot().Trips[0].Expenses)
	assert.Empty(t, e.Snapshot().Trips[0].CategoryBudgets)
}

type fakePublisher struct {
	msgs []*amqp.SnapshotMessage
	err  error
}

func (f *fakePublisher) PublishSnapshot(_ context.Context, msg *amqp.SnapshotMessage) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestQueuePersister(t *testing.T) {
	pub := &fakePublisher{}
	p := QueuePersister{Publisher: pub}

	require.NoError(t, p.Persist(context.Background(), "acct", 7, core.DefaultAccount()))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "acct", pub.msgs[0].Key)
	assert.Equal(t, int64(7), pub.msgs[0].Version)
	assert.Contains(t, string(pub.msgs[0].Data), `"categories"`)

	pub.err = amqp.ErrCircuitOpen
	err := p.Persist(context.Background(), "acct", 8, core.DefaultAccount())
	assert.ErrorIs(t, err, amqp.ErrCircuitOpen)
}
