package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pair is an ordered currency pair. (A, B) and (B, A) are distinct pairs.
type Pair struct {
	From Currency `json:"from"`
	To   Currency `json:"to"`
}

// String renders the pair the way the upstream expects it, e.g. "USDEUR".
func (p Pair) String() string { return string(p.From) + string(p.To) }

// Rate is an immutable (pair, price, timestamp) triple. Prices are decimal,
// not binary floats, so they round-trip through the store without drift.
type Rate struct {
	Pair      Pair            `json:"pair"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// TrackedPairs returns every ordered distinct pair over the tracked set,
// 9*8 = 72 pairs in deterministic order.
func TrackedPairs() []Pair {
	out := make([]Pair, 0, len(tracked)*(len(tracked)-1))
	for _, from := range tracked {
		for _, to := range tracked {
			if from == to {
				continue
			}
			out = append(out, Pair{From: from, To: to})
		}
	}
	return out
}
