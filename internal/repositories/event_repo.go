package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtrenholm/argus/internal/database"
	"github.com/mtrenholm/argus/internal/models"
)

// failedLoginPattern matches the messages written for failed authentication
// attempts; the detector's aggregate keys off it.
const failedLoginPattern = "Failed login attempt%"

// EventRepository handles the append-only security event store.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{pool: db.Pool}
}

// Append inserts a new security event.
func (r *EventRepository) Append(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	event.ID = uuid.New().String()

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	if event.Severity == "" {
		event.Severity = models.SeverityLow
	}
	if event.Status == "" {
		event.Status = models.EventStatusActive
	}
	if event.DetectedBy == "" {
		event.DetectedBy = "System"
	}

	query := `
		INSERT INTO security_events (id, source_ip, destination_ip, severity, message, detected_by, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID, event.SourceIP, event.DestinationIP, event.Severity,
		event.Message, event.DetectedBy, event.Status, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return event, nil
}

// List returns events matching the filter, newest first.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, source_ip, destination_ip, severity, message, detected_by, status, created_at, updated_at
		FROM security_events
		WHERE ($1 = '' OR severity = $1)
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR source_ip = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, query,
		filter.Severity, filter.Status, filter.SourceIP, filter.CreatedAfter, limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.SecurityEvent, 0)
	for rows.Next() {
		var e models.SecurityEvent
		if err := rows.Scan(
			&e.ID, &e.SourceIP, &e.DestinationIP, &e.Severity,
			&e.Message, &e.DetectedBy, &e.Status, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

// UpdateStatus transitions an event between active/resolved/ignored.
func (r *EventRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE security_events SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountFailedLoginsByIP aggregates failed-login events per source IP since
// the given time. This is the detector's evidence query.
func (r *EventRepository) CountFailedLoginsByIP(ctx context.Context, since time.Time) ([]models.IPFailureCount, error) {
	query := `
		SELECT source_ip, COUNT(*)
		FROM security_events
		WHERE message ILIKE $1 AND created_at >= $2
		GROUP BY source_ip
	`

	rows, err := r.pool.Query(ctx, query, failedLoginPattern, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate failed logins: %w", err)
	}
	defer rows.Close()

	counts := make([]models.IPFailureCount, 0)
	for rows.Next() {
		var c models.IPFailureCount
		if err := rows.Scan(&c.SourceIP, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}

// CountBySeverity aggregates events by severity since the given time.
func (r *EventRepository) CountBySeverity(ctx context.Context, since time.Time) ([]models.SeverityCount, error) {
	query := `
		SELECT severity, COUNT(*)
		FROM security_events
		WHERE created_at >= $1
		GROUP BY severity
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate severities: %w", err)
	}
	defer rows.Close()

	counts := make([]models.SeverityCount, 0)
	for rows.Next() {
		var c models.SeverityCount
		if err := rows.Scan(&c.Severity, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}

// DeleteResolvedBefore removes resolved events older than the cutoff and
// returns the number deleted. Retention housekeeping, not correctness.
func (r *EventRepository) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM security_events WHERE status = 'resolved' AND created_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old events: %w", err)
	}
	return tag.RowsAffected(), nil
}
