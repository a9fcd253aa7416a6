// Package cache holds the in-process mirror of the shared rate table and the
// sync job that keeps it current.
package cache

import (
	"sync/atomic"

	"github.com/sawpanic/fxproxy/internal/domain"
)

// Snapshot is the nullable in-process copy of the rate table. It starts
// uninitialized and is replaced wholesale by each successful sync; it is
// never mutated in place. Reads never block on a sync in progress.
type Snapshot struct {
	v atomic.Pointer[[]domain.Rate]
}

// NewSnapshot returns an empty (uninitialized) snapshot.
func NewSnapshot() *Snapshot { return &Snapshot{} }

// Rates returns the current table, or nil before the first successful sync.
// Callers must not modify the returned slice.
func (s *Snapshot) Rates() []domain.Rate {
	p := s.v.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Ready reports whether the first sync has completed.
func (s *Snapshot) Ready() bool { return s.v.Load() != nil }

// Update atomically swaps in a new table. Only the sync job calls this; it is
// never reachable from the HTTP layer.
func (s *Snapshot) Update(rates []domain.Rate) {
	s.v.Store(&rates)
}
