// Package refresher runs one fetch→store→publish cycle. It is stateless
// between invocations and safe to re-enter; the store write is
// last-writer-wins.
package refresher

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sawpanic/fxproxy/internal/domain"
	"github.com/sawpanic/fxproxy/internal/metrics"
)

// Fetcher is the upstream side of a cycle.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]domain.Rate, error)
}

// Store is the publish side of a cycle.
type Store interface {
	SetRates(ctx context.Context, rates []domain.Rate) error
	PublishRatesUpdated(ctx context.Context) error
}

// Refresher mirrors the upstream quote set into the shared store and fans the
// update out to subscribers.
type Refresher struct {
	fetcher Fetcher
	store   Store
	log     zerolog.Logger
}

// New builds a Refresher.
func New(fetcher Fetcher, store Store, logger zerolog.Logger) *Refresher {
	return &Refresher{
		fetcher: fetcher,
		store:   store,
		log:     logger.With().Str("component", "refresher").Logger(),
	}
}

// Refresh executes one cycle and returns the number of rates published.
// A fetch failure leaves the store untouched: stale rates beat no rates.
// The notification is published only after the store write returns; if the
// publish fails the store may already hold the new blob, which is acceptable
// because subscribers catch up on reconnect or on the next cycle.
func (r *Refresher) Refresh(ctx context.Context) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("unexpected error: %v", rec)
			metrics.RefreshCycles.WithLabelValues("error").Inc()
		}
	}()

	rates, err := r.fetcher.FetchAll(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("upstream fetch failed, store left untouched")
		metrics.RefreshCycles.WithLabelValues("fetch_failed").Inc()
		return 0, err
	}

	if err := r.store.SetRates(ctx, rates); err != nil {
		r.log.Error().Err(err).Msg("store write failed")
		metrics.RefreshCycles.WithLabelValues("store_failed").Inc()
		return 0, err
	}
	if err := r.store.PublishRatesUpdated(ctx); err != nil {
		r.log.Error().Err(err).Msg("notification publish failed after store write")
		metrics.RefreshCycles.WithLabelValues("publish_failed").Inc()
		return 0, err
	}

	r.log.Info().Int("rates", len(rates)).Msg("refresh cycle complete")
	metrics.RefreshCycles.WithLabelValues("ok").Inc()
	metrics.RatesPublished.Set(float64(len(rates)))
	return len(rates), nil
}
