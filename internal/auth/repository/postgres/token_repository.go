package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	"github.com/abrahamahn/abe-stack-auth/pkg/constant"
)

// superseded_by and superseding_token are NULL until the token is
// consumed; COALESCE keeps the scan targets plain strings.
const tokenColumns = `id, family_id, user_id, token_hash, ip_address, user_agent,
	       created_at, expires_at, consumed_at,
	       COALESCE(superseded_by, ''), COALESCE(superseding_token, '')`

func scanToken(row pgx.Row) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := row.Scan(
		&t.ID, &t.FamilyID, &t.UserID, &t.TokenHash, &t.IPAddress, &t.UserAgent,
		&t.CreatedAt, &t.ExpiresAt, &t.ConsumedAt, &t.SupersededBy, &t.SupersedingToken,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateFamilyWithToken inserts the family and its first token atomically.
func (r *PostgresRepository) CreateFamilyWithToken(ctx context.Context, family *domain.RefreshTokenFamily, token *domain.RefreshToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO refresh_token_families (id, user_id, created_at, latest_expires_at, last_ip_address, last_user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, family.ID, family.UserID, family.CreatedAt, family.LatestExpiresAt,
		family.LastIPAddress, family.LastUserAgent); err != nil {
		return fmt.Errorf("failed to insert token family: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO refresh_tokens (id, family_id, user_id, token_hash, ip_address, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, token.ID, token.FamilyID, token.UserID, token.TokenHash, token.IPAddress,
		token.UserAgent, token.CreatedAt, token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to insert refresh token: %w", err)
	}

	return tx.Commit(ctx)
}

// Rotate runs the full read-check-write rotation sequence in one
// transaction. The SELECT locks both the presented token row and its
// family row: concurrent rotations of the same token serialize (the
// first transaction wins, the second re-reads the consumed row after
// commit and lands on the grace-replay or reuse path), and a revoke
// committing mid-rotation cannot slip past the revoked_at check.
//
//nolint:gocyclo // the branch structure mirrors the rotation decision table
func (r *PostgresRepository) Rotate(ctx context.Context, p domain.RotateParams) (*domain.RotationResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		t            domain.RefreshToken
		revokedAt    *time.Time
		revokeReason string
	)
	err = tx.QueryRow(ctx, `
		SELECT t.id, t.family_id, t.user_id, t.token_hash, t.ip_address, t.user_agent,
		       t.created_at, t.expires_at, t.consumed_at,
		       COALESCE(t.superseded_by, ''), COALESCE(t.superseding_token, ''),
		       f.revoked_at, COALESCE(f.revoke_reason, '')
		FROM refresh_tokens t
		JOIN refresh_token_families f ON f.id = t.family_id
		WHERE t.token_hash = $1
		FOR UPDATE OF t, f
	`, p.TokenHash).Scan(
		&t.ID, &t.FamilyID, &t.UserID, &t.TokenHash, &t.IPAddress, &t.UserAgent,
		&t.CreatedAt, &t.ExpiresAt, &t.ConsumedAt, &t.SupersededBy, &t.SupersedingToken,
		&revokedAt, &revokeReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.RotationResult{Outcome: domain.RotationNotFound}, nil
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if revokedAt != nil {
		return &domain.RotationResult{Outcome: domain.RotationFamilyRevoked, FamilyID: t.FamilyID}, nil
	}
	if t.IsExpired(p.Now) {
		return &domain.RotationResult{Outcome: domain.RotationExpired, FamilyID: t.FamilyID}, nil
	}

	if t.IsConsumed() {
		// Benign double-submission: the same rotation was committed moments
		// ago, hand back the secret that superseded this token.
		if p.Now.Sub(*t.ConsumedAt) <= p.Grace && t.SupersedingToken != "" {
			user, err := fetchUser(ctx, tx, t.UserID)
			if err != nil {
				return nil, err
			}
			if err := tx.Commit(ctx); err != nil {
				return nil, fmt.Errorf("failed to commit rotation: %w", err)
			}
			return &domain.RotationResult{
				Outcome:  domain.RotationGraceReplay,
				FamilyID: t.FamilyID,
				TokenID:  t.SupersededBy,
				RawToken: t.SupersedingToken,
				User:     user,
			}, nil
		}

		// Theft signal: a token that died by rotation came back. Revoke the
		// whole family; the caller maps this to the generic invalid-token
		// response and raises the out-of-band alert.
		if _, err := tx.Exec(ctx, `
			UPDATE refresh_token_families
			SET revoked_at = $2, revoke_reason = $3
			WHERE id = $1 AND revoked_at IS NULL
		`, t.FamilyID, p.Now, constant.RevokeReasonReuse); err != nil {
			return nil, fmt.Errorf("failed to revoke family on reuse: %w", err)
		}
		user, err := fetchUser(ctx, tx, t.UserID)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit reuse revocation: %w", err)
		}
		return &domain.RotationResult{
			Outcome:  domain.RotationReuseDetected,
			FamilyID: t.FamilyID,
			User:     user,
			OldToken: &t,
		}, nil
	}

	// Dormant-session bound: a current token that sat unrotated past the
	// idle timeout is dead even though its hard expiry has not passed.
	if p.IdleTimeout > 0 && p.Now.Sub(t.CreatedAt) > p.IdleTimeout {
		return &domain.RotationResult{Outcome: domain.RotationIdleTimedOut, FamilyID: t.FamilyID}, nil
	}

	expiresAt := p.Now.Add(p.Expiry)

	if _, err := tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET consumed_at = $2, superseded_by = $3, superseding_token = $4
		WHERE id = $1
	`, t.ID, p.Now, p.NewTokenID, p.NewRawToken); err != nil {
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO refresh_tokens (id, family_id, user_id, token_hash, ip_address, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.NewTokenID, t.FamilyID, t.UserID, p.NewTokenHash, p.IPAddress,
		p.UserAgent, p.Now, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to insert rotated token: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE refresh_token_families
		SET latest_expires_at = $2, last_ip_address = $3, last_user_agent = $4
		WHERE id = $1
	`, t.FamilyID, expiresAt, p.IPAddress, p.UserAgent); err != nil {
		return nil, fmt.Errorf("failed to update family metadata: %w", err)
	}

	// Raw superseding secrets are only readable inside the grace window;
	// scrub the ones that have aged out of it.
	if _, err := tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET superseding_token = ''
		WHERE family_id = $1 AND superseding_token <> '' AND consumed_at < $2
	`, t.FamilyID, p.Now.Add(-p.Grace)); err != nil {
		return nil, fmt.Errorf("failed to scrub superseded secrets: %w", err)
	}

	user, err := fetchUser(ctx, tx, t.UserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rotation: %w", err)
	}

	return &domain.RotationResult{
		Outcome:  domain.RotationRotated,
		FamilyID: t.FamilyID,
		TokenID:  p.NewTokenID,
		RawToken: p.NewRawToken,
		User:     user,
	}, nil
}

func fetchUser(ctx context.Context, tx pgx.Tx, userID string) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE id = $1
	`, userColumns)

	user, err := scanUser(tx.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load token owner: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM refresh_tokens
		WHERE token_hash = $1
		LIMIT 1;
	`, tokenColumns)

	token, err := scanToken(r.db.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token by hash: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) GetFamilyByID(ctx context.Context, familyID string) (*domain.RefreshTokenFamily, error) {
	var f domain.RefreshTokenFamily
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, created_at, revoked_at, COALESCE(revoke_reason, ''), latest_expires_at, last_ip_address, last_user_agent
		FROM refresh_token_families
		WHERE id = $1
		LIMIT 1;
	`, familyID).Scan(
		&f.ID, &f.UserID, &f.CreatedAt, &f.RevokedAt, &f.RevokeReason,
		&f.LatestExpiresAt, &f.LastIPAddress, &f.LastUserAgent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token family: %w", err)
	}
	return &f, nil
}

// RevokeFamily is idempotent. The conditional UPDATE makes a revoke racing
// with another revoke resolve to exactly one performer, which is what the
// bulk operations count.
func (r *PostgresRepository) RevokeFamily(ctx context.Context, familyID, reason string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_token_families
		SET revoked_at = now(), revoke_reason = $2
		WHERE id = $1 AND revoked_at IS NULL
	`, familyID, reason)
	if err != nil {
		return false, fmt.Errorf("failed to revoke family: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID, reason string) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_token_families
		SET revoked_at = now(), revoke_reason = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, reason)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke families for user: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresRepository) GetActiveFamiliesByUserID(ctx context.Context, userID string, now time.Time) ([]*domain.RefreshTokenFamily, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, created_at, revoked_at, COALESCE(revoke_reason, ''), latest_expires_at, last_ip_address, last_user_agent
		FROM refresh_token_families
		WHERE user_id = $1 AND revoked_at IS NULL AND latest_expires_at > $2
		ORDER BY created_at DESC
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active families: %w", err)
	}
	defer rows.Close()

	var families []*domain.RefreshTokenFamily
	for rows.Next() {
		var f domain.RefreshTokenFamily
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.CreatedAt, &f.RevokedAt, &f.RevokeReason,
			&f.LatestExpiresAt, &f.LastIPAddress, &f.LastUserAgent,
		); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, &f)
	}
	return families, rows.Err()
}

// RevokeOldestFamilies caps the number of concurrently active families per
// user by revoking the oldest ones beyond the cap.
func (r *PostgresRepository) RevokeOldestFamilies(ctx context.Context, userID string, max int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_token_families
		SET revoked_at = now(), revoke_reason = $3
		WHERE id IN (
			SELECT id FROM refresh_token_families
			WHERE user_id = $1 AND revoked_at IS NULL
			ORDER BY created_at DESC
			OFFSET $2
		)
	`, userID, max, constant.RevokeReasonSessionCap)
	if err != nil {
		return fmt.Errorf("failed to revoke oldest families: %w", err)
	}
	return nil
}
