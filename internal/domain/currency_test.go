package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	t.Run("accepts whitelisted codes", func(t *testing.T) {
		for _, raw := range []string{"USD", "EUR", "SGD", "ZAR"} {
			c, err := ParseCurrency(raw)
			require.NoError(t, err)
			assert.Equal(t, Currency(raw), c)
		}
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		c, err := ParseCurrency(" usd ")
		require.NoError(t, err)
		assert.Equal(t, Currency("USD"), c)
	})

	t.Run("rejects unknown codes", func(t *testing.T) {
		for _, raw := range []string{"XYZ", "", "US", "DOLLAR"} {
			_, err := ParseCurrency(raw)
			assert.ErrorIs(t, err, ErrUnknownCurrency, "input %q", raw)
		}
	})
}

func TestTracked(t *testing.T) {
	got := Tracked()
	require.Len(t, got, 9)

	// Every tracked code must also pass boundary validation.
	for _, c := range got {
		assert.True(t, c.Valid(), "tracked currency %s not in whitelist", c)
	}

	assert.ElementsMatch(t, []Currency{"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "NZD", "SGD"}, got)
}

func TestTrackedPairs(t *testing.T) {
	pairs := TrackedPairs()
	require.Len(t, pairs, 72)

	seen := make(map[Pair]struct{}, len(pairs))
	for _, p := range pairs {
		assert.NotEqual(t, p.From, p.To, "same-currency pair %s must never be tracked", p)
		_, dup := seen[p]
		assert.False(t, dup, "duplicate pair %s", p)
		seen[p] = struct{}{}
	}

	// Pairs are directional: both orderings of each unordered pair exist.
	_, ok := seen[Pair{From: "USD", To: "EUR"}]
	assert.True(t, ok)
	_, ok = seen[Pair{From: "EUR", To: "USD"}]
	assert.True(t, ok)
}

func TestCurrencyJSON(t *testing.T) {
	t.Run("round-trips valid codes", func(t *testing.T) {
		var c Currency
		require.NoError(t, c.UnmarshalJSON([]byte(`"EUR"`)))
		assert.Equal(t, Currency("EUR"), c)
	})

	t.Run("rejects unknown codes at the element level", func(t *testing.T) {
		var c Currency
		assert.Error(t, c.UnmarshalJSON([]byte(`"XXX1"`)))
	})
}
