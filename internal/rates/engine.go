// Package rates answers ordered-pair lookups from the in-process snapshot.
// The engine composes cross rates through the USD base; the service facade
// collapses every failure into one opaque lookup error for the HTTP layer.
package rates

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sawpanic/fxproxy/internal/domain"
)

var (
	// ErrServiceUnavailable means the snapshot has not been initialized yet.
	ErrServiceUnavailable = errors.New("rates: snapshot not initialized")
	// ErrPairNotFound means the snapshot is live but the pair is not derivable.
	ErrPairNotFound = errors.New("rates: pair not found")
)

// base is the pivot currency for cross-rate composition. The upstream table
// is tracked around USD, so (USD, X) rows exist for every tracked X.
var base = domain.Currency("USD")

// SnapshotReader is the read side of the snapshot cell.
type SnapshotReader interface {
	Rates() []domain.Rate
}

// Engine derives the rate for any ordered pair from the snapshot.
type Engine struct {
	snap SnapshotReader
	now  func() time.Time
}

// NewEngine builds an engine over a snapshot.
func NewEngine(snap SnapshotReader) *Engine {
	return &Engine{snap: snap, now: time.Now}
}

// Get resolves a pair: identity for same-currency, then direct lookup, then
// cross-rate through USD. Same-currency pairs resolve even on a cold cache.
func (e *Engine) Get(pair domain.Pair) (domain.Rate, error) {
	if pair.From == pair.To {
		return domain.Rate{
			Pair:      pair,
			Price:     decimal.NewFromInt(1),
			Timestamp: e.now(),
		}, nil
	}

	rates := e.snap.Rates()
	if rates == nil {
		return domain.Rate{}, ErrServiceUnavailable
	}

	byPair := make(map[domain.Pair]domain.Rate, len(rates))
	for _, r := range rates {
		byPair[r.Pair] = r
	}

	if r, ok := byPair[pair]; ok {
		return r, nil
	}
	return crossViaBase(byPair, pair)
}

// crossViaBase computes price(base,to) / price(base,from). The timestamp is
// the later of the two source rows, the pair is the requested one.
func crossViaBase(byPair map[domain.Pair]domain.Rate, pair domain.Pair) (domain.Rate, error) {
	baseFrom, okFrom := byPair[domain.Pair{From: base, To: pair.From}]
	baseTo, okTo := byPair[domain.Pair{From: base, To: pair.To}]
	if !okFrom || !okTo {
		return domain.Rate{}, ErrPairNotFound
	}
	if baseFrom.Price.IsZero() {
		return domain.Rate{}, ErrPairNotFound
	}

	ts := baseFrom.Timestamp
	if baseTo.Timestamp.After(ts) {
		ts = baseTo.Timestamp
	}
	return domain.Rate{
		Pair:      pair,
		Price:     baseTo.Price.Div(baseFrom.Price),
		Timestamp: ts,
	}, nil
}
