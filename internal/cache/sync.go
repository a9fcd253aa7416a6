package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/fxproxy/internal/domain"
	"github.com/sawpanic/fxproxy/internal/metrics"
)

// Store is the read side of the shared store.
type Store interface {
	GetRates(ctx context.Context) ([]domain.Rate, error)
}

// SyncJob consumes the notification stream and mirrors the store into the
// snapshot. Triggers are processed serially, so at most one sync runs at a
// time; readers see either the old snapshot or the new one.
type SyncJob struct {
	snap     *Snapshot
	store    Store
	triggers <-chan struct{}
	log      zerolog.Logger
}

// New builds the snapshot cell and its sync job. The job does nothing until
// Run is called.
func New(store Store, triggers <-chan struct{}, logger zerolog.Logger) (*Snapshot, *SyncJob) {
	snap := NewSnapshot()
	job := &SyncJob{
		snap:     snap,
		store:    store,
		triggers: triggers,
		log:      logger.With().Str("component", "sync").Logger(),
	}
	return snap, job
}

// Run performs one initial sync, then one sync per trigger, until ctx is
// cancelled or the trigger stream closes. Sync failures are logged and
// swallowed; the job must never take the API process down.
func (j *SyncJob) Run(ctx context.Context) {
	j.syncOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			j.log.Info().Msg("sync job stopping")
			return
		case _, ok := <-j.triggers:
			if !ok {
				j.log.Info().Msg("trigger stream closed, sync job stopping")
				return
			}
			j.syncOnce(ctx)
		}
	}
}

func (j *SyncJob) syncOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			j.log.Error().Interface("panic", rec).Msg("sync panicked")
			metrics.SnapshotSyncs.WithLabelValues("panic").Inc()
		}
	}()

	start := time.Now()
	rates, err := j.store.GetRates(ctx)
	if err != nil {
		j.log.Warn().Err(err).Msg("store read failed, keeping current snapshot")
		metrics.SnapshotSyncs.WithLabelValues("error").Inc()
		return
	}
	if rates == nil {
		// Cold or corrupt store. Never replace good data with nothing.
		j.log.Debug().Msg("store empty, keeping current snapshot")
		metrics.SnapshotSyncs.WithLabelValues("empty").Inc()
		return
	}

	j.snap.Update(rates)
	metrics.SnapshotSyncs.WithLabelValues("ok").Inc()
	metrics.SnapshotLastSync.SetToCurrentTime()
	metrics.SnapshotRates.Set(float64(len(rates)))
	j.log.Info().
		Int("rates", len(rates)).
		Dur("elapsed", time.Since(start)).
		Msg("snapshot synced")
}
