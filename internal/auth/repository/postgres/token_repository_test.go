package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	repo "github.com/abrahamahn/abe-stack-auth/internal/auth/repository/postgres"
)

var rotateCols = []string{
	"id", "family_id", "user_id", "token_hash", "ip_address", "user_agent",
	"created_at", "expires_at", "consumed_at", "superseded_by", "superseding_token",
	"revoked_at", "revoke_reason",
}

func rotateParams(now time.Time) domain.RotateParams {
	return domain.RotateParams{
		TokenHash:    "old-hash",
		NewTokenID:   "tok-2",
		NewRawToken:  "new-raw",
		NewTokenHash: "new-hash",
		IPAddress:    "1.2.3.4",
		UserAgent:    "agent",
		Now:          now,
		Expiry:       7 * 24 * time.Hour,
		Grace:        30 * time.Second,
		IdleTimeout:  3 * 24 * time.Hour,
	}
}

func TestRotate_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	p := rotateParams(now)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF t, f").
		WithArgs(p.TokenHash).
		WillReturnRows(pgxmock.NewRows(rotateCols).AddRow(
			"tok-1", "family-1", "user-123", "old-hash", "9.9.9.9", "old-agent",
			now.Add(-time.Hour), now.Add(6*24*time.Hour), nil, "", "",
			nil, "",
		))
	mock.ExpectExec("SET consumed_at").
		WithArgs("tok-1", p.Now, p.NewTokenID, p.NewRawToken).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(p.NewTokenID, "family-1", "user-123", p.NewTokenHash, p.IPAddress,
			p.UserAgent, p.Now, p.Now.Add(p.Expiry)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("SET latest_expires_at").
		WithArgs("family-1", p.Now.Add(p.Expiry), p.IPAddress, p.UserAgent).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("SET superseding_token = ''").
		WithArgs("family-1", p.Now.Add(-p.Grace)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("FROM users").
		WithArgs("user-123").
		WillReturnRows(userRow("user-123", "test@example.com"))
	mock.ExpectCommit()

	result, err := r.Rotate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, domain.RotationRotated, result.Outcome)
	assert.Equal(t, "family-1", result.FamilyID)
	assert.Equal(t, "tok-2", result.TokenID)
	assert.Equal(t, "new-raw", result.RawToken)
	require.NotNil(t, result.User)
	assert.Equal(t, "user-123", result.User.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotate_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	p := rotateParams(time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF t, f").
		WithArgs(p.TokenHash).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	result, err := r.Rotate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, domain.RotationNotFound, result.Outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotate_FamilyRevoked(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	p := rotateParams(now)
	revokedAt := now.Add(-time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF t, f").
		WithArgs(p.TokenHash).
		WillReturnRows(pgxmock.NewRows(rotateCols).AddRow(
			"tok-1", "family-1", "user-123", "old-hash", "", "",
			now.Add(-time.Hour), now.Add(time.Hour), nil, "", "",
			&revokedAt, "token_reuse_detected",
		))
	mock.ExpectRollback()

	result, err := r.Rotate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, domain.RotationFamilyRevoked, result.Outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotate_Expired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	p := rotateParams(now)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF t, f").
		WithArgs(p.TokenHash).
		WillReturnRows(pgxmock.NewRows(rotateCols).AddRow(
			"tok-1", "family-1", "user-123", "old-hash", "", "",
			now.Add(-10*24*time.Hour), now.Add(-time.Minute), nil, "", "",
			nil, "",
		))
	mock.ExpectRollback()

	result, err := r.Rotate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, domain.RotationExpired, result.Outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotate_IdleTimedOut(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	p := rotateParams(now)

	// Unconsumed and not yet hard-expired, but dormant past the idle bound.
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF t, f").
		WithArgs(p.TokenHash).
		WillReturnRows(pgxmock.NewRows(rotateCols).AddRow(
			"tok-1", "family-1", "user-123", "old-hash", "", "",
			now.Add(-4*24*time.Hour), now.Add(3*24*time.Hour), nil, "", "",
			nil, "",
		))
	mock.ExpectRollback()

	result, err := r.Rotate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, domain.RotationIdleTimedOut, result.Outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotate_GraceReplay(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	p := rotateParams(now)
	consumedAt := now.Add(-10 * time.Second)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF t, f").
		WithArgs(p.TokenHash).
		WillReturnRows(pgxmock.NewRows(rotateCols).AddRow(
			"tok-1", "family-1", "user-123", "old-hash", "", "",
			now.Add(-time.Hour), now.Add(6*24*time.Hour), &consumedAt, "tok-winner", "winner-raw",
			nil, "",
		))
	mock.ExpectQuery("FROM users").
		WithArgs("user-123").
		WillReturnRows(userRow("user-123", "test@example.com"))
	mock.ExpectCommit()

	result, err := r.Rotate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, domain.RotationGraceReplay, result.Outcome)
	// The loser of the race gets the winner's secret back, not a new one.
	assert.Equal(t, "tok-winner", result.TokenID)
	assert.Equal(t, "winner-raw", result.RawToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotate_ReuseDetectedRevokesFamily(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	p := rotateParams(now)
	// Consumed well outside the grace window: this is reuse, not a retry.
	consumedAt := now.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF t, f").
		WithArgs(p.TokenHash).
		WillReturnRows(pgxmock.NewRows(rotateCols).AddRow(
			"tok-1", "family-1", "user-123", "old-hash", "6.6.6.6", "curl",
			now.Add(-2*time.Hour), now.Add(6*24*time.Hour), &consumedAt, "tok-winner", "",
			nil, "",
		))
	mock.ExpectExec("SET revoked_at").
		WithArgs("family-1", p.Now, "token_reuse_detected").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("FROM users").
		WithArgs("user-123").
		WillReturnRows(userRow("user-123", "victim@example.com"))
	mock.ExpectCommit()

	result, err := r.Rotate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, domain.RotationReuseDetected, result.Outcome)
	assert.Equal(t, "family-1", result.FamilyID)
	require.NotNil(t, result.OldToken)
	assert.Equal(t, "6.6.6.6", result.OldToken.IPAddress)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotate_ScrubbedReplayIsReuse(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	p := rotateParams(now)
	// Inside the grace window on the clock, but the raw superseding secret
	// was already scrubbed, so the replay cannot be answered.
	consumedAt := now.Add(-10 * time.Second)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF t, f").
		WithArgs(p.TokenHash).
		WillReturnRows(pgxmock.NewRows(rotateCols).AddRow(
			"tok-1", "family-1", "user-123", "old-hash", "", "",
			now.Add(-time.Hour), now.Add(6*24*time.Hour), &consumedAt, "tok-winner", "",
			nil, "",
		))
	mock.ExpectExec("SET revoked_at").
		WithArgs("family-1", p.Now, "token_reuse_detected").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("FROM users").
		WithArgs("user-123").
		WillReturnRows(userRow("user-123", "test@example.com"))
	mock.ExpectCommit()

	result, err := r.Rotate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, domain.RotationReuseDetected, result.Outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFamilyWithToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	family := &domain.RefreshTokenFamily{
		ID: "family-1", UserID: "user-123", CreatedAt: now,
		LatestExpiresAt: now.Add(7 * 24 * time.Hour),
		LastIPAddress:   "1.2.3.4", LastUserAgent: "agent",
	}
	token := &domain.RefreshToken{
		ID: "tok-1", FamilyID: "family-1", UserID: "user-123", TokenHash: "hash",
		IPAddress: "1.2.3.4", UserAgent: "agent", CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO refresh_token_families").
		WithArgs(family.ID, family.UserID, family.CreatedAt, family.LatestExpiresAt,
			family.LastIPAddress, family.LastUserAgent).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(token.ID, token.FamilyID, token.UserID, token.TokenHash,
			token.IPAddress, token.UserAgent, token.CreatedAt, token.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, r.CreateFamilyWithToken(context.Background(), family, token))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeFamily(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	t.Run("performed", func(t *testing.T) {
		mock.ExpectExec("SET revoked_at").
			WithArgs("family-1", "logout").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		performed, err := r.RevokeFamily(context.Background(), "family-1", "logout")
		require.NoError(t, err)
		assert.True(t, performed)
	})

	t.Run("already revoked", func(t *testing.T) {
		mock.ExpectExec("SET revoked_at").
			WithArgs("family-1", "logout").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		performed, err := r.RevokeFamily(context.Background(), "family-1", "logout")
		require.NoError(t, err)
		assert.False(t, performed)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveFamiliesByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()

	familyCols := []string{"id", "user_id", "created_at", "revoked_at", "revoke_reason",
		"latest_expires_at", "last_ip_address", "last_user_agent"}

	mock.ExpectQuery("FROM refresh_token_families").
		WithArgs("user-123", now).
		WillReturnRows(pgxmock.NewRows(familyCols).
			AddRow("family-1", "user-123", now.Add(-time.Hour), nil, "", now.Add(time.Hour), "1.1.1.1", "phone").
			AddRow("family-2", "user-123", now.Add(-2*time.Hour), nil, "", now.Add(time.Hour), "2.2.2.2", "laptop"))

	families, err := r.GetActiveFamiliesByUserID(context.Background(), "user-123", now)

	require.NoError(t, err)
	require.Len(t, families, 2)
	assert.Equal(t, "family-1", families[0].ID)
	assert.Equal(t, "laptop", families[1].LastUserAgent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFamilyByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()

	familyCols := []string{"id", "user_id", "created_at", "revoked_at", "revoke_reason",
		"latest_expires_at", "last_ip_address", "last_user_agent"}

	// revoke_reason is NULL on live families; the query has to coalesce it
	// so the plain-string scan does not depend on a schema default.
	mock.ExpectQuery(`COALESCE\(revoke_reason, ''\)`).
		WithArgs("family-1").
		WillReturnRows(pgxmock.NewRows(familyCols).
			AddRow("family-1", "user-123", now.Add(-time.Hour), nil, "", now.Add(time.Hour), "1.1.1.1", "phone"))

	family, err := r.GetFamilyByID(context.Background(), "family-1")

	require.NoError(t, err)
	require.NotNil(t, family)
	assert.Equal(t, "user-123", family.UserID)
	assert.Empty(t, family.RevokeReason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllForUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	mock.ExpectExec("SET revoked_at").
		WithArgs("user-123", "admin_revoked").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	count, err := r.RevokeAllForUser(context.Background(), "user-123", "admin_revoked")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
