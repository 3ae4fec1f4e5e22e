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

// ReputationRepository persists the suspicious IP and domain registries.
// The two kinds live in disjoint tables; subject is unique per table.
type ReputationRepository struct {
	pool *pgxpool.Pool
}

func NewReputationRepository(db *database.DB) *ReputationRepository {
	return &ReputationRepository{pool: db.Pool}
}

func tableForKind(kind string) (string, error) {
	switch kind {
	case models.ReputationKindIP:
		return "suspicious_ips", nil
	case models.ReputationKindDomain:
		return "suspicious_domains", nil
	default:
		return "", fmt.Errorf("unknown reputation kind %q: %w", kind, models.ErrValidation)
	}
}

func (r *ReputationRepository) GetBySubject(ctx context.Context, kind, subject string) (*models.ReputationRecord, error) {
	table, err := tableForKind(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, subject, reason, risk_score, first_detected, last_seen, source
		FROM %s WHERE subject = $1
	`, table)

	var rec models.ReputationRecord
	rec.Kind = kind
	err = r.pool.QueryRow(ctx, query, subject).Scan(
		&rec.ID, &rec.Subject, &rec.Reason, &rec.RiskScore,
		&rec.FirstDetected, &rec.LastSeen, &rec.Source,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &rec, nil
}

// Insert adds a new registry entry. A duplicate subject maps to ErrConflict
// via the unique constraint.
func (r *ReputationRepository) Insert(ctx context.Context, rec *models.ReputationRecord) (*models.ReputationRecord, error) {
	table, err := tableForKind(rec.Kind)
	if err != nil {
		return nil, err
	}

	rec.ID = uuid.New().String()

	now := time.Now()
	if rec.FirstDetected.IsZero() {
		rec.FirstDetected = now
	}
	if rec.LastSeen.IsZero() {
		rec.LastSeen = now
	}
	if rec.Source == "" {
		rec.Source = "Manual Entry"
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, subject, reason, risk_score, first_detected, last_seen, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, table)

	_, err = r.pool.Exec(ctx, query,
		rec.ID, rec.Subject, rec.Reason, rec.RiskScore,
		rec.FirstDetected, rec.LastSeen, rec.Source,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return rec, nil
}

// TouchLastSeen advances last_seen to now for a matched subject.
func (r *ReputationRepository) TouchLastSeen(ctx context.Context, kind, subject string) error {
	table, err := tableForKind(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET last_seen = NOW() WHERE subject = $1`, table)

	tag, err := r.pool.Exec(ctx, query, subject)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByKind returns all records of one kind, most recently seen first.
func (r *ReputationRepository) ListByKind(ctx context.Context, kind string) ([]*models.ReputationRecord, error) {
	table, err := tableForKind(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, subject, reason, risk_score, first_detected, last_seen, source
		FROM %s ORDER BY last_seen DESC
	`, table)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reputation records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.ReputationRecord, 0)
	for rows.Next() {
		var rec models.ReputationRecord
		rec.Kind = kind
		if err := rows.Scan(
			&rec.ID, &rec.Subject, &rec.Reason, &rec.RiskScore,
			&rec.FirstDetected, &rec.LastSeen, &rec.Source,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reputation record: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// Count returns the number of entries of one kind. Used by seeding to
// detect an empty registry.
func (r *ReputationRepository) Count(ctx context.Context, kind string) (int, error) {
	table, err := tableForKind(kind)
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reputation records: %w", err)
	}
	return count, nil
}
