package security

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtrenholm/argus/internal/models"
)

// EventSource supplies the evidence stream the detector aggregates over.
type EventSource interface {
	// CountFailedLoginsByIP returns per-source-IP counts of failed
	// authentication events created at or after since.
	CountFailedLoginsByIP(ctx context.Context, since time.Time) ([]models.IPFailureCount, error)
}

// AlertSink receives alerts raised by the detector. Persisting and
// broadcasting are the sink's concern; a sink failure never reverts a
// block decision.
type AlertSink interface {
	RaiseAlert(ctx context.Context, alert *models.Alert) error
}

// DetectorConfig holds the detector's thresholds. The per-IP threshold is
// deliberately higher than the per-account lockout threshold: the detector
// aggregates failures across accounts from one network source, while the
// lockout guards a single account. The two are independent defenses.
type DetectorConfig struct {
	Window        time.Duration // trailing aggregation window
	Threshold     int           // failed logins per IP before blocking
	BlockDuration time.Duration // how long an offending IP stays blocked
}

// Detector is the periodic brute-force scanner. Each pass aggregates failed
// authentication events per source IP over the trailing window, blocks
// offenders and raises one alert per newly blocked IP. Already-blocked IPs
// are skipped, so immediate re-runs produce no duplicate blocks or alerts.
type Detector struct {
	events    EventSource
	alerts    AlertSink
	blocklist *Blocklist
	cfg       DetectorConfig
	clock     Clock
	logger    *slog.Logger
}

// NewDetector creates a detector writing into the given block registry.
func NewDetector(events EventSource, alerts AlertSink, blocklist *Blocklist, cfg DetectorConfig, clock Clock, logger *slog.Logger) *Detector {
	return &Detector{
		events:    events,
		alerts:    alerts,
		blocklist: blocklist,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

// RunPass executes one detector pass. Any error aborts the pass after
// logging; the next scheduled pass retries independently.
func (d *Detector) RunPass(ctx context.Context) {
	since := d.clock.Now().Add(-d.cfg.Window)

	counts, err := d.events.CountFailedLoginsByIP(ctx, since)
	if err != nil {
		d.logger.Error("brute force scan aborted: event query failed", slog.Any("error", err))
		return
	}

	for _, c := range counts {
		if c.Count < d.cfg.Threshold {
			continue
		}
		if d.blocklist.IsBlocked(c.SourceIP) {
			continue
		}

		d.blocklist.Block(c.SourceIP, d.cfg.BlockDuration)
		d.logger.Warn("blocked IP for brute force activity",
			slog.String("source_ip", c.SourceIP),
			slog.Int("failed_attempts", c.Count),
			slog.Duration("block_duration", d.cfg.BlockDuration))

		alert := &models.Alert{
			Title: "IP Temporarily Blocked",
			Description: fmt.Sprintf("IP %s has been blocked for %d minutes due to %d failed login attempts.",
				c.SourceIP, int(d.cfg.BlockDuration.Minutes()), c.Count),
			Type:     models.AlertTypeUnauthorizedAccess,
			Severity: models.SeverityHigh,
			Source:   "SecurityMonitor",
		}
		if err := d.alerts.RaiseAlert(ctx, alert); err != nil {
			// The block stands even if the alert could not be delivered.
			d.logger.Error("failed to raise brute force alert",
				slog.String("source_ip", c.SourceIP),
				slog.Any("error", err))
		}
	}

	if removed := d.blocklist.SweepExpired(); removed > 0 {
		d.logger.Info("swept expired IP blocks", slog.Int("removed", removed))
	}
}
