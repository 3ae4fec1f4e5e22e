package services

import (
	"context"
	"log/slog"

	"github.com/mtrenholm/argus/internal/models"
)

// EventRepository defines the interface for security event storage
type EventRepository interface {
	Append(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error)
	List(ctx context.Context, filter models.EventFilter) ([]*models.SecurityEvent, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// EventBroadcaster pushes new events to connected dashboard clients.
// Fire-and-forget: delivery failures never surface to callers.
type EventBroadcaster interface {
	BroadcastEvent(event *models.SecurityEvent)
}

// EventService owns the security event log surface.
type EventService struct {
	repo      EventRepository
	broadcast EventBroadcaster
	logger    *slog.Logger
}

// NewEventService creates a new EventService
func NewEventService(repo EventRepository, broadcast EventBroadcaster, logger *slog.Logger) *EventService {
	return &EventService{repo: repo, broadcast: broadcast, logger: logger}
}

// Record appends an event and broadcasts it. The append error is returned
// for callers that require the write; security-decision callers use
// RecordBestEffort instead.
func (s *EventService) Record(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	created, err := s.repo.Append(ctx, event)
	if err != nil {
		return nil, err
	}

	if s.broadcast != nil {
		s.broadcast.BroadcastEvent(created)
	}
	return created, nil
}

// RecordBestEffort appends an event, logging and swallowing any store
// failure. A security decision already taken must not be blocked by an
// unavailable event store.
func (s *EventService) RecordBestEffort(ctx context.Context, event *models.SecurityEvent) {
	if _, err := s.Record(ctx, event); err != nil {
		s.logger.Error("failed to record security event",
			slog.String("message", event.Message),
			slog.Any("error", err))
	}
}

// List returns events matching the filter, newest first.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]*models.SecurityEvent, error) {
	return s.repo.List(ctx, filter)
}

// UpdateStatus transitions an event's status.
func (s *EventService) UpdateStatus(ctx context.Context, id, status string) error {
	switch status {
	case models.EventStatusActive, models.EventStatusResolved, models.EventStatusIgnored:
	default:
		return models.ErrValidation
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
