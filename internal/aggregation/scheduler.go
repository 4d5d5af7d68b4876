package aggregation

import (
	"context"
	"log/slog"
	"time"
)

const (
	shutdownFlushTimeout   = 30 * time.Second
	maxConsecutiveBatches  = 20
	defaultRetentionPeriod = time.Hour
)

// Scheduler drives the engine: a flush cycle every update_interval and a
// retention sweep every retentionInterval. It holds no state of its own.
type Scheduler struct {
	engine            *Engine
	retentionInterval time.Duration
}

// NewScheduler creates a scheduler for engine. A non-positive
// retentionInterval defaults to one hour.
func NewScheduler(engine *Engine, retentionInterval time.Duration) *Scheduler {
	if retentionInterval <= 0 {
		retentionInterval = defaultRetentionPeriod
	}
	return &Scheduler{engine: engine, retentionInterval: retentionInterval}
}

// Start runs until ctx is cancelled, then performs one bounded final flush.
func (s *Scheduler) Start(ctx context.Context) error {
	rc := s.engine.RuntimeConfig()
	ticker := time.NewTicker(rc.UpdateInterval)
	defer ticker.Stop()
	retention := time.NewTicker(s.retentionInterval)
	defer retention.Stop()

	slog.Info("[Scheduler] Starting aggregation scheduler",
		"update_interval", rc.UpdateInterval,
		"batch_size", rc.BatchSize,
		"workers", s.engine.opts.WorkerCount,
		"retention_interval", s.retentionInterval,
	)

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.engine.reconfigure:
			interval := s.engine.RuntimeConfig().UpdateInterval
			ticker.Reset(interval)
			slog.Info("[Scheduler] Interval updated", "update_interval", interval)
		case <-retention.C:
			if _, err := s.engine.SweepRetention(ctx); err != nil {
				slog.Error("[Scheduler] Retention sweep failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			defer cancel()

			slog.Info("[Scheduler] Running final flush before shutdown...", "pending", s.engine.queue.Len())
			s.drain(shutdownCtx)
			slog.Info("[Scheduler] Final flush complete", "pending", s.engine.queue.Len())
			return nil
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.engine.RuntimeConfig().EnableRealTimeUpdates {
		slog.Debug("[Scheduler] Real-time updates disabled, skipping tick")
		return
	}
	s.drain(ctx)
}

// drain runs flush cycles while each one fills a whole batch without
// failures, so a burst does not wait several ticks. It stops early when a
// cycle is already running.
func (s *Scheduler) drain(ctx context.Context) {
	for batch := 0; batch < maxConsecutiveBatches; batch++ {
		if ctx.Err() != nil {
			slog.Info("[Scheduler] Drain interrupted by context cancellation", "batches_processed", batch)
			return
		}

		result, ran := s.engine.FlushOnce(ctx)
		if !ran {
			slog.Debug("[Scheduler] Previous flush still running, skipping")
			return
		}
		if result.Selected < s.engine.RuntimeConfig().BatchSize || result.Retried+result.Failed > 0 {
			return
		}
		slog.Info("[Scheduler] Backlog detected, continuing to drain", "batches_so_far", batch+1)
	}

	slog.Warn("[Scheduler] Max consecutive batches reached, pausing drain",
		"max_batches", maxConsecutiveBatches,
		"pending", s.engine.queue.Len(),
	)
}
