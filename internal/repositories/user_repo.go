package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtrenholm/argus/internal/database"
	"github.com/mtrenholm/argus/internal/models"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning user rows (single row or result set)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var lockedUntil *time.Time

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role,
		&user.FailedAttempts, &lockedUntil,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.LockedUntil = lockedUntil
	return &user, nil
}

const userColumns = `id, email, password_hash, name, role, failed_attempts, locked_until, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = "user"
	}

	query := `
		INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	created, err := scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RecordFailure atomically increments the failure counter and applies the
// lock once the new count reaches threshold. The single UPDATE makes the
// read-increment-write atomic under concurrent login attempts.
func (r *UserRepository) RecordFailure(ctx context.Context, accountID string, threshold int, lockUntil time.Time) (int, *time.Time, error) {
	query := `
		UPDATE users
		SET failed_attempts = failed_attempts + 1,
		    locked_until = CASE WHEN failed_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING failed_attempts, locked_until
	`

	var failed int
	var lockedUntil *time.Time
	err := r.pool.QueryRow(ctx, query, accountID, threshold, lockUntil).Scan(&failed, &lockedUntil)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil, models.ErrNotFound
		}
		return 0, nil, fmt.Errorf("failed to record auth failure: %w", err)
	}

	return failed, lockedUntil, nil
}

// ResetLock clears the failure counter and any lock after a successful
// authentication.
func (r *UserRepository) ResetLock(ctx context.Context, accountID string) error {
	query := `
		UPDATE users
		SET failed_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, accountID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// LockState reads the current lockout fields without mutation.
func (r *UserRepository) LockState(ctx context.Context, accountID string) (int, *time.Time, error) {
	query := `SELECT failed_attempts, locked_until FROM users WHERE id = $1`

	var failed int
	var lockedUntil *time.Time
	err := r.pool.QueryRow(ctx, query, accountID).Scan(&failed, &lockedUntil)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil, models.ErrNotFound
		}
		return 0, nil, fmt.Errorf("failed to read lock state: %w", err)
	}

	return failed, lockedUntil, nil
}
