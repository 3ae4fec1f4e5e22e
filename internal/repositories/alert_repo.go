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

// AlertRepository handles persisted security alerts.
type AlertRepository struct {
	pool *pgxpool.Pool
}

func NewAlertRepository(db *database.DB) *AlertRepository {
	return &AlertRepository{pool: db.Pool}
}

func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	alert.ID = uuid.New().String()

	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now

	if alert.Severity == "" {
		alert.Severity = models.SeverityLow
	}
	if alert.Status == "" {
		alert.Status = models.AlertStatusNew
	}
	if alert.Source == "" {
		alert.Source = "System"
	}

	query := `
		INSERT INTO alerts (id, title, description, type, severity, source, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		alert.ID, alert.Title, alert.Description, alert.Type,
		alert.Severity, alert.Source, alert.Status, alert.CreatedAt, alert.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return alert, nil
}

// List returns the most recent alerts, newest first.
func (r *AlertRepository) List(ctx context.Context, limit, offset int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, title, description, type, severity, source, status, created_at, updated_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]*models.Alert, 0)
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Description, &a.Type,
			&a.Severity, &a.Source, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return alerts, nil
}

func (r *AlertRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE alerts SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountByType aggregates alerts by type since the given time.
func (r *AlertRepository) CountByType(ctx context.Context, since time.Time) ([]models.TypeCount, error) {
	query := `
		SELECT type, COUNT(*)
		FROM alerts
		WHERE created_at >= $1
		GROUP BY type
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate alerts: %w", err)
	}
	defer rows.Close()

	counts := make([]models.TypeCount, 0)
	for rows.Next() {
		var c models.TypeCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}
