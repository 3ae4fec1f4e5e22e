// Package background runs the periodic security jobs: the brute-force
// detector pass, limiter sweeps, and event log retention.
package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtrenholm/argus/internal/security"
)

// RetentionStore deletes resolved events older than the cutoff.
type RetentionStore interface {
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SchedulerConfig holds the cadences for the periodic jobs.
type SchedulerConfig struct {
	DetectorInterval  time.Duration // brute-force detector pass cadence
	RetentionInterval time.Duration // retention sweep cadence
	RetentionMaxAge   time.Duration // resolved events older than this are deleted
}

// Scheduler drives the detector and housekeeping on their tickers. Each job
// runs on a single goroutine, so passes of the same job never overlap.
type Scheduler struct {
	detector  *security.Detector
	limiters  []*security.RateLimiter
	retention RetentionStore
	clock     security.Clock
	cfg       SchedulerConfig
	logger    *slog.Logger
	stopCh    chan struct{}
}

// NewScheduler creates a new Scheduler.
func NewScheduler(detector *security.Detector, limiters []*security.RateLimiter, retention RetentionStore, clock security.Clock, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		detector:  detector,
		limiters:  limiters,
		retention: retention,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Start runs the job loop until Stop is called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	detectorTicker := time.NewTicker(s.cfg.DetectorInterval)
	retentionTicker := time.NewTicker(s.cfg.RetentionInterval)
	defer detectorTicker.Stop()
	defer retentionTicker.Stop()

	// Run retention once on startup so a restart doesn't postpone it a day.
	s.runRetention(ctx)

	for {
		select {
		case <-detectorTicker.C:
			s.runDetectorPass(ctx)
		case <-retentionTicker.C:
			s.runRetention(ctx)
		case <-s.stopCh:
			s.logger.Info("scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		}
	}
}

// Stop signals the scheduler to stop.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) runDetectorPass(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s.detector.RunPass(passCtx)

	for _, limiter := range s.limiters {
		if removed := limiter.Sweep(); removed > 0 {
			s.logger.Debug("swept stale limiter windows",
				slog.String("limiter", limiter.Name()),
				slog.Int("removed", removed))
		}
	}
}

func (s *Scheduler) runRetention(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cutoff := s.clock.Now().Add(-s.cfg.RetentionMaxAge)
	deleted, err := s.retention.DeleteResolvedBefore(sweepCtx, cutoff)
	if err != nil {
		s.logger.Error("failed to prune resolved events", slog.Any("error", err))
		return
	}
	if deleted > 0 {
		s.logger.Info("pruned resolved events",
			slog.Int64("rows_deleted", deleted),
			slog.Time("cutoff", cutoff))
	}
}
