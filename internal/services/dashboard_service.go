package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtrenholm/argus/internal/models"
	"github.com/mtrenholm/argus/internal/security"
)

// EventStatsSource provides aggregate event counts for the dashboard
type EventStatsSource interface {
	CountBySeverity(ctx context.Context, since time.Time) ([]models.SeverityCount, error)
	List(ctx context.Context, filter models.EventFilter) ([]*models.SecurityEvent, error)
}

// AlertStatsSource provides aggregate alert counts for the dashboard
type AlertStatsSource interface {
	CountByType(ctx context.Context, since time.Time) ([]models.TypeCount, error)
}

// DashboardStats is the aggregate view served at /api/dashboard/stats
type DashboardStats struct {
	WindowHours      int                     `json:"window_hours"`
	EventsBySeverity []models.SeverityCount  `json:"events_by_severity"`
	AlertsByType     []models.TypeCount      `json:"alerts_by_type"`
	BlockedIPs       int                     `json:"blocked_ips"`
	RecentEvents     []*models.SecurityEvent `json:"recent_events"`
}

// DashboardService assembles summary statistics for the dashboard UI
type DashboardService struct {
	events    EventStatsSource
	alerts    AlertStatsSource
	blocklist *security.Blocklist
	window    time.Duration
	clock     security.Clock
	logger    *slog.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(events EventStatsSource, alerts AlertStatsSource, blocklist *security.Blocklist, window time.Duration, clock security.Clock, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		events:    events,
		alerts:    alerts,
		blocklist: blocklist,
		window:    window,
		clock:     clock,
		logger:    logger,
	}
}

// Stats computes dashboard aggregates over the trailing window.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	since := s.clock.Now().Add(-s.window)

	bySeverity, err := s.events.CountBySeverity(ctx, since)
	if err != nil {
		s.logger.Error("failed to count events by severity", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	byType, err := s.alerts.CountByType(ctx, since)
	if err != nil {
		s.logger.Error("failed to count alerts by type", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	recent, err := s.events.List(ctx, models.EventFilter{Limit: 10})
	if err != nil {
		s.logger.Error("failed to list recent events", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &DashboardStats{
		WindowHours:      int(s.window.Hours()),
		EventsBySeverity: bySeverity,
		AlertsByType:     byType,
		BlockedIPs:       s.blocklist.Len(),
		RecentEvents:     recent,
	}, nil
}
