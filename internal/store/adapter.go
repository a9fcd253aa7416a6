// Package store adapts the shared Valkey instance that carries the canonical
// rate table. The refresher is the only writer; every API pod reads the blob
// and listens for update notifications.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sawpanic/fxproxy/internal/domain"
)

const (
	// RatesKey is the single key holding the JSON-encoded rate table.
	RatesKey = "rates"
	// RatesChannel carries fire-and-forget update notifications.
	RatesChannel = "rates_updated"

	resubscribeDelay = 500 * time.Millisecond
)

// Adapter wraps two Valkey connections: one for commands and a dedicated one
// for the blocking subscription. A subscribed connection refuses regular
// commands, so the two must never be shared.
type Adapter struct {
	cmd *redis.Client
	sub *redis.Client
	log zerolog.Logger
}

// New connects to Valkey at the given URI (redis:// scheme).
func New(uri string, logger zerolog.Logger) (*Adapter, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	subOpts := *opts
	return &Adapter{
		cmd: redis.NewClient(opts),
		sub: redis.NewClient(&subOpts),
		log: logger.With().Str("component", "store").Logger(),
	}, nil
}

// NewWithClients builds an adapter over pre-made clients. Tests use this to
// inject a redismock client.
func NewWithClients(cmd, sub *redis.Client, logger zerolog.Logger) *Adapter {
	return &Adapter{cmd: cmd, sub: sub, log: logger.With().Str("component", "store").Logger()}
}

// GetRates reads the rate table. A missing key and an undecodable value both
// return (nil, nil): the caller treats either as a cold store and keeps
// whatever it already has. Only transport failures surface as errors.
func (a *Adapter) GetRates(ctx context.Context) ([]domain.Rate, error) {
	raw, err := a.cmd.Get(ctx, RatesKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rates []domain.Rate
	if err := json.Unmarshal(raw, &rates); err != nil {
		a.log.Warn().Err(err).Msg("rate blob is not decodable, treating store as empty")
		return nil, nil
	}
	return rates, nil
}

// SetRates overwrites the rate table with a single-key SET. Readers observe
// either the old blob or the new one, never a mix. No TTL.
func (a *Adapter) SetRates(ctx context.Context, rates []domain.Rate) error {
	raw, err := json.Marshal(rates)
	if err != nil {
		return err
	}
	return a.cmd.Set(ctx, RatesKey, raw, 0).Err()
}

// PublishRatesUpdated emits one notification. The payload is irrelevant and a
// message with no live subscribers is simply lost; the next cycle repairs that.
func (a *Adapter) PublishRatesUpdated(ctx context.Context) error {
	return a.cmd.Publish(ctx, RatesChannel, "1").Err()
}

// SubscribeRatesUpdated subscribes on the dedicated connection and returns a
// channel that yields one value per notification. The channel is closed when
// ctx is cancelled. If the subscription drops, it is re-established and one
// synthetic trigger is emitted so the consumer catches up on anything
// published while disconnected.
func (a *Adapter) SubscribeRatesUpdated(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		first := true
		for {
			if ctx.Err() != nil {
				return
			}
			pubsub := a.sub.Subscribe(ctx, RatesChannel)
			if _, err := pubsub.Receive(ctx); err != nil {
				_ = pubsub.Close()
				if ctx.Err() != nil {
					return
				}
				a.log.Warn().Err(err).Msg("subscribe failed, retrying")
				select {
				case <-time.After(resubscribeDelay):
				case <-ctx.Done():
					return
				}
				continue
			}
			if !first {
				// Catch up on notifications lost while disconnected.
				select {
				case out <- struct{}{}:
				default:
				}
			}
			first = false
			a.consume(ctx, pubsub, out)
			_ = pubsub.Close()
		}
	}()
	return out
}

func (a *Adapter) consume(ctx context.Context, pubsub *redis.PubSub, out chan<- struct{}) {
	for {
		_, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				a.log.Warn().Err(err).Msg("subscription dropped")
			}
			return
		}
		select {
		case out <- struct{}{}:
		default:
			// A trigger is already pending; coalescing duplicates is fine.
		}
	}
}

// Close releases both connections.
func (a *Adapter) Close() error {
	subErr := a.sub.Close()
	if err := a.cmd.Close(); err != nil {
		return err
	}
	return subErr
}
