package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/fxproxy/internal/domain"
)

func testRates() []domain.Rate {
	return []domain.Rate{
		{
			Pair:      domain.Pair{From: "USD", To: "EUR"},
			Price:     decimal.RequireFromString("0.85"),
			Timestamp: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			Pair:      domain.Pair{From: "USD", To: "JPY"},
			Price:     decimal.RequireFromString("110.5"),
			Timestamp: time.Date(2026, 2, 10, 0, 1, 0, 0, time.UTC),
		},
	}
}

func newTestAdapter(t *testing.T) (*Adapter, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	return NewWithClients(db, db, zerolog.Nop()), mock
}

func TestGetRates(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes stored blob", func(t *testing.T) {
		adapter, mock := newTestAdapter(t)
		rates := testRates()
		blob, err := json.Marshal(rates)
		require.NoError(t, err)

		mock.ExpectGet(RatesKey).SetVal(string(blob))

		got, err := adapter.GetRates(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, rates[0].Pair, got[0].Pair)
		assert.True(t, rates[0].Price.Equal(got[0].Price))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing key is a cold store, not an error", func(t *testing.T) {
		adapter, mock := newTestAdapter(t)
		mock.ExpectGet(RatesKey).RedisNil()

		got, err := adapter.GetRates(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt blob is a cold store, not an error", func(t *testing.T) {
		adapter, mock := newTestAdapter(t)
		mock.ExpectGet(RatesKey).SetVal(`{"not":"an array"`)

		got, err := adapter.GetRates(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("blob with unknown currency fails decoding wholesale", func(t *testing.T) {
		adapter, mock := newTestAdapter(t)
		mock.ExpectGet(RatesKey).SetVal(`[{"pair":{"from":"FOO","to":"EUR"},"price":"1","timestamp":"2026-02-10T00:00:00Z"}]`)

		got, err := adapter.GetRates(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("transport error surfaces", func(t *testing.T) {
		adapter, mock := newTestAdapter(t)
		mock.ExpectGet(RatesKey).SetErr(context.DeadlineExceeded)

		_, err := adapter.GetRates(ctx)
		assert.Error(t, err)
	})
}

func TestSetRates(t *testing.T) {
	ctx := context.Background()
	adapter, mock := newTestAdapter(t)

	rates := testRates()
	blob, err := json.Marshal(rates)
	require.NoError(t, err)

	// Single-key SET with no TTL.
	mock.ExpectSet(RatesKey, blob, 0).SetVal("OK")

	require.NoError(t, adapter.SetRates(ctx, rates))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter, mock := newTestAdapter(t)

	rates := testRates()
	blob, err := json.Marshal(rates)
	require.NoError(t, err)

	mock.ExpectSet(RatesKey, blob, 0).SetVal("OK")
	mock.ExpectGet(RatesKey).SetVal(string(blob))

	require.NoError(t, adapter.SetRates(ctx, rates))
	got, err := adapter.GetRates(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(rates))
	for i := range rates {
		assert.Equal(t, rates[i].Pair, got[i].Pair)
		assert.True(t, rates[i].Price.Equal(got[i].Price), "price %d drifted", i)
		assert.True(t, rates[i].Timestamp.Equal(got[i].Timestamp))
	}
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	adapter, _ := newTestAdapter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := adapter.SubscribeRatesUpdated(ctx)
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must be closed, not yielding values")
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel not closed on cancelled context")
	}
}

func TestPublishRatesUpdated(t *testing.T) {
	ctx := context.Background()
	adapter, mock := newTestAdapter(t)

	mock.ExpectPublish(RatesChannel, "1").SetVal(0)

	// Zero receivers is fine: the notification is fire-and-forget.
	require.NoError(t, adapter.PublishRatesUpdated(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
