package currency

import (
	"bytes"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viaggi/internal/core"
)

func TestConvertIdentity(t *testing.T) {
	// identity needs no lookup, even with an empty table
	v, err := Convert(42.5, "XXX", "XXX", Table{})
	require.NoError(t, err)
	assert.Equal(t, 42.5, v)
}

func TestConvertThroughPivot(t *testing.T) {
	table := DefaultRates()

	v, err := Convert(1000, "THB", "EUR", table)
	require.NoError(t, err)
	assert.InDelta(t, 25.3165, v, 1e-4)

	v, err = Convert(10, "USD", "JPY", table)
	require.NoError(t, err)
	assert.InDelta(t, 10/1.08*168.0, v, 1e-9)
}

func TestConvertMissingRate(t *testing.T) {
	table := Table{"EUR": 1}

	v, err := Convert(12, "CHF", "EUR", table)
	require.ErrorIs(t, err, core.ErrRateNotFound)
	assert.Equal(t, 12.0, v)

	v, err = Convert(12, "EUR", "CHF", table)
	require.ErrorIs(t, err, core.ErrRateNotFound)
	assert.Equal(t, 12.0, v)

	_, err = Convert(12, "EUR", "ZZZ", Table{"EUR": 1, "ZZZ": 0})
	require.ErrorIs(t, err, core.ErrRateNotFound)
}

func TestConvertRoundTrip(t *testing.T) {
	table := DefaultRates()
	codes := core.AllCurrencies

	for i := 0; i < 500; i++ {
		amount := gofakeit.Float64Range(0.01, 1_000_000)
		a := gofakeit.RandomString(codes)
		b := gofakeit.RandomString(codes)

		there, err := Convert(amount, a, b, table)
		require.NoError(t, err)
		back, err := Convert(there, b, a, table)
		require.NoError(t, err)

		if math.Abs(back-amount) > 1e-9*math.Max(1, amount) {
			t.Fatalf("round trip %s->%s->%s: %v became %v", a, b, a, amount, back)
		}
	}
}

type fixedSource Table

func (f fixedSource) Rates() (Table, *time.Time) { return Table(f), nil }

func TestConverterDegradesOnMissingRate(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := NewConverter(fixedSource{"EUR": 1, "USD": 2}, logger)

	assert.Equal(t, 5.0, c.Convert(10, "USD", "EUR"))
	assert.Empty(t, buf.String())

	assert.Equal(t, 7.0, c.Convert(7, "KRW", "EUR"))
	assert.Contains(t, buf.String(), "rate unavailable")
	assert.Contains(t, buf.String(), "from=KRW")
}
