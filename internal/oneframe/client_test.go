package oneframe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/fxproxy/internal/domain"
)

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(Config{
		BaseURL:    baseURL,
		Token:      "secret-token",
		Timeout:    2 * time.Second,
		MaxRetries: maxRetries,
	}, zerolog.Nop())
}

func TestFetchAllRequestShape(t *testing.T) {
	var gotToken string
	var gotPairs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("token")
		gotPairs = r.URL.Query()["pair"]
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	_, err := client.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "secret-token", gotToken)
	require.Len(t, gotPairs, 72)
	assert.Contains(t, gotPairs, "USDEUR")
	assert.Contains(t, gotPairs, "EURUSD")
	assert.Contains(t, gotPairs, "SGDNZD")
}

func TestFetchAllMapsRecords(t *testing.T) {
	body := `[
		{"from":"USD","to":"EUR","bid":0.84,"ask":0.86,"price":0.85,"time_stamp":"2026-02-10T00:00:00Z"},
		{"from":"USD","to":"JPY","bid":110.0,"ask":111.0,"price":110.5,"time_stamp":"2026-02-10T00:01:00Z"}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	rates, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)

	// price is consumed, bid/ask are not
	assert.Equal(t, domain.Pair{From: "USD", To: "EUR"}, rates[0].Pair)
	assert.Equal(t, "0.85", rates[0].Price.String())
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), rates[0].Timestamp.UTC())

	// upstream order is preserved
	assert.Equal(t, domain.Pair{From: "USD", To: "JPY"}, rates[1].Pair)
}

func TestFetchAllDropsInvalidCurrencies(t *testing.T) {
	body := `[
		{"from":"USD","to":"EUR","price":0.85,"time_stamp":"2026-02-10T00:00:00Z"},
		{"from":"FOO","to":"EUR","price":1.23,"time_stamp":"2026-02-10T00:00:00Z"},
		{"from":"USD","to":"BAR","price":4.56,"time_stamp":"2026-02-10T00:00:00Z"}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	rates, err := client.FetchAll(context.Background())
	require.NoError(t, err)

	// Invalid rows are dropped silently, valid rows survive.
	require.Len(t, rates, 1)
	assert.Equal(t, domain.Pair{From: "USD", To: "EUR"}, rates[0].Pair)
}

func TestFetchAllTimestampFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"from":"USD","to":"EUR","price":0.85,"time_stamp":"garbage"}]`)
	}))
	defer srv.Close()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newTestClient(srv.URL, 0)
	client.now = func() time.Time { return fixed }

	rates, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, fixed.Equal(rates[0].Timestamp), "unparseable timestamp must fall back to the local clock")
}

func TestFetchAllRetries(t *testing.T) {
	t.Run("fails K times then succeeds issues K+1 requests", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `[]`)
		}))
		defer srv.Close()

		client := newTestClient(srv.URL, 3)
		start := time.Now()
		_, err := client.FetchAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
		// backoff 100ms + 200ms before attempts 2 and 3
		assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
	})

	t.Run("exhaustion returns ErrLookupFailed", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := newTestClient(srv.URL, 2)
		_, err := client.FetchAll(context.Background())
		assert.ErrorIs(t, err, ErrLookupFailed)
		assert.Equal(t, int32(3), calls.Load(), "maxRetries=2 means exactly 3 attempts")
	})

	t.Run("decode failure is retryable", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				fmt.Fprint(w, `not json`)
				return
			}
			fmt.Fprint(w, `[]`)
		}))
		defer srv.Close()

		client := newTestClient(srv.URL, 1)
		_, err := client.FetchAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("backoff sleep is interruptible", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		// Large retry budget; cancellation must cut it short.
		client := newTestClient(srv.URL, 10)
		ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := client.FetchAll(ctx)
		assert.ErrorIs(t, err, ErrLookupFailed)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}
