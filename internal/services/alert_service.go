package services

import (
	"context"
	"log/slog"

	"github.com/mtrenholm/argus/internal/models"
)

// AlertRepository defines the interface for alert storage
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) (*models.Alert, error)
	List(ctx context.Context, limit, offset int) ([]*models.Alert, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// AlertBroadcaster pushes new alerts to connected dashboard clients.
type AlertBroadcaster interface {
	BroadcastAlert(alert *models.Alert)
}

// AlertNotifier delivers out-of-band notifications for alerts that warrant
// them (critical severity goes out by email).
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert *models.Alert) error
}

// AlertService persists alerts and fans them out. It implements the
// detector's AlertSink.
type AlertService struct {
	repo      AlertRepository
	broadcast AlertBroadcaster
	notifier  AlertNotifier
	logger    *slog.Logger
}

// NewAlertService creates a new AlertService. broadcast and notifier may be
// nil when the corresponding channel is not configured.
func NewAlertService(repo AlertRepository, broadcast AlertBroadcaster, notifier AlertNotifier, logger *slog.Logger) *AlertService {
	return &AlertService{repo: repo, broadcast: broadcast, notifier: notifier, logger: logger}
}

// RaiseAlert persists the alert and broadcasts it. The persist error is
// returned so callers can retry on their own cadence; broadcast and email
// failures are soft and only logged.
func (s *AlertService) RaiseAlert(ctx context.Context, alert *models.Alert) error {
	_, err := s.Create(ctx, alert)
	return err
}

// Create persists the alert, fans it out, and returns the stored record.
func (s *AlertService) Create(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	created, err := s.repo.Create(ctx, alert)
	if err != nil {
		return nil, err
	}

	if s.broadcast != nil {
		s.broadcast.BroadcastAlert(created)
	}

	if s.notifier != nil && created.Severity == models.SeverityCritical {
		if err := s.notifier.NotifyAlert(ctx, created); err != nil {
			s.logger.Error("failed to send alert notification",
				slog.String("alert_id", created.ID),
				slog.Any("error", err))
		}
	}

	s.logger.Info("alert raised",
		slog.String("alert_id", created.ID),
		slog.String("type", created.Type),
		slog.String("severity", created.Severity))
	return created, nil
}

// List returns recent alerts, newest first.
func (s *AlertService) List(ctx context.Context, limit, offset int) ([]*models.Alert, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdateStatus transitions an alert's status.
func (s *AlertService) UpdateStatus(ctx context.Context, id, status string) error {
	switch status {
	case models.AlertStatusNew, models.AlertStatusAcknowledged, models.AlertStatusResolved:
	default:
		return models.ErrValidation
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
