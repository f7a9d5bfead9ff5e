package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
)

// DB is the subset of pgxpool.Pool the repositories use; pgxmock
// satisfies it in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// lock_reason is NULL until an admin sets it; COALESCE keeps the scan
// target a plain string.
const userColumns = `id, email, password_hash, role, email_verified, totp_enabled, totp_secret,
	       phone, phone_verified, token_version, locked_until, COALESCE(lock_reason, ''), deleted_at,
	       created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.EmailVerified,
		&user.TotpEnabled, &user.TotpSecret, &user.Phone, &user.PhoneVerified,
		&user.TokenVersion, &user.LockedUntil, &user.LockReason, &user.DeletedAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE lower(email) = lower($1)
		LIMIT 1;
	`, userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE id = $1
		LIMIT 1;
	`, userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, role, email_verified, totp_enabled, totp_secret,
                           phone, phone_verified, token_version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, user.ID, user.Email, user.PasswordHash, user.Role, user.EmailVerified,
		user.TotpEnabled, user.TotpSecret, user.Phone, user.PhoneVerified,
		user.TokenVersion, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`, userID, hash)
	return err
}

func (r *PostgresRepository) ClearLock(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET locked_until = NULL, lock_reason = '', updated_at = now()
		WHERE id = $1
	`, userID)
	return err
}

func (r *PostgresRepository) ClearDeletedAt(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET deleted_at = NULL, updated_at = now()
		WHERE id = $1
	`, userID)
	return err
}

func (r *PostgresRepository) RecordLoginAttempt(ctx context.Context, attempt *domain.LoginAttempt) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, email, ip_address, user_agent, attempt_time, successful, failure_reason)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
	`, attempt.Email, attempt.IPAddress, attempt.UserAgent, attempt.AttemptTime,
		attempt.Successful, attempt.FailureReason)
	return err
}

func (r *PostgresRepository) CountRecentFailures(ctx context.Context, email string, since time.Time) (int, *time.Time, error) {
	var count int
	var lastFailure *time.Time

	// Attempts rejected for being locked are excluded so retries during a
	// lockout cannot extend it indefinitely.
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), MAX(attempt_time)
		FROM login_attempts
		WHERE lower(email) = lower($1) AND successful = false
		  AND failure_reason <> 'locked' AND attempt_time >= $2
	`, email, since).Scan(&count, &lastFailure)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to count recent failures: %w", err)
	}

	return count, lastFailure, nil
}
