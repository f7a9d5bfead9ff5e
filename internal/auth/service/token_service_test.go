package service_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/service"
	autherror "github.com/abrahamahn/abe-stack-auth/internal/errors"
	authconstant "github.com/abrahamahn/abe-stack-auth/pkg/constant"
)

func newTokenService() *service.TokenService {
	return service.NewTokenService("access-secret", "challenge-secret", 15, 7*24*60, 5)
}

func TestTokenService_AccessTokenRoundtrip(t *testing.T) {
	ts := newTokenService()
	user := &domain.User{
		ID:           "user-123",
		Email:        "test@example.com",
		Role:         authconstant.DefaultUserRole,
		TokenVersion: 3,
	}

	tokenString, err := ts.GenerateAccess(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := ts.VerifyAccessToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
}

func TestTokenService_VerifyAccessToken_WrongSecret(t *testing.T) {
	ts := newTokenService()
	other := service.NewTokenService("different-secret", "challenge-secret", 15, 60, 5)

	tokenString, err := other.GenerateAccess(&domain.User{ID: "user-123"})
	require.NoError(t, err)

	_, err = ts.VerifyAccessToken(tokenString)
	assert.Error(t, err)
}

func TestTokenService_VerifyAccessToken_Expired(t *testing.T) {
	ts := service.NewTokenService("access-secret", "challenge-secret", -1, 60, 5)

	tokenString, err := ts.GenerateAccess(&domain.User{ID: "user-123"})
	require.NoError(t, err)

	_, err = ts.VerifyAccessToken(tokenString)
	assert.Error(t, err)
}

func TestTokenService_VerifyAccessToken_Garbage(t *testing.T) {
	ts := newTokenService()
	_, err := ts.VerifyAccessToken("not-a-jwt")
	assert.Error(t, err)
}

func TestTokenService_ChallengeRoundtrip(t *testing.T) {
	ts := newTokenService()

	tokenString, err := ts.GenerateChallenge("user-123", authconstant.PurposeTotpChallenge)
	require.NoError(t, err)

	claims, err := ts.VerifyChallenge(tokenString, authconstant.PurposeTotpChallenge)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	// The JTI is what gets consumed on completion, so it must be present
	// and unique per challenge.
	assert.NotEmpty(t, claims.ID)

	other, err := ts.GenerateChallenge("user-123", authconstant.PurposeTotpChallenge)
	require.NoError(t, err)
	otherClaims, err := ts.VerifyChallenge(other, authconstant.PurposeTotpChallenge)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, otherClaims.ID)
}

func TestTokenService_VerifyChallenge_WrongPurpose(t *testing.T) {
	ts := newTokenService()

	tokenString, err := ts.GenerateChallenge("user-123", authconstant.PurposeSmsChallenge)
	require.NoError(t, err)

	// An SMS challenge cannot complete the TOTP flow.
	_, err = ts.VerifyChallenge(tokenString, authconstant.PurposeTotpChallenge)
	assert.ErrorIs(t, err, autherror.ErrInvalidToken)
}

func TestTokenService_VerifyChallenge_Expired(t *testing.T) {
	ts := service.NewTokenService("access-secret", "challenge-secret", 15, 60, -1)

	tokenString, err := ts.GenerateChallenge("user-123", authconstant.PurposeTotpChallenge)
	require.NoError(t, err)

	_, err = ts.VerifyChallenge(tokenString, authconstant.PurposeTotpChallenge)
	assert.ErrorIs(t, err, autherror.ErrInvalidToken)
}

func TestTokenService_VerifyChallenge_AccessTokenRejected(t *testing.T) {
	ts := newTokenService()

	// An access token must not pass as a challenge even though both are
	// HS256 JWTs: the secrets differ.
	accessToken, err := ts.GenerateAccess(&domain.User{ID: "user-123"})
	require.NoError(t, err)

	_, err = ts.VerifyChallenge(accessToken, authconstant.PurposeTotpChallenge)
	assert.ErrorIs(t, err, autherror.ErrInvalidToken)
}

func TestTokenService_NewRefreshSecret(t *testing.T) {
	ts := newTokenService()

	raw, hash, err := ts.NewRefreshSecret()
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	sum := sha256.Sum256([]byte(raw))
	assert.Equal(t, hex.EncodeToString(sum[:]), hash)
	assert.Equal(t, hash, ts.HashRefreshSecret(raw))

	// Secrets are unique per call.
	raw2, _, err := ts.NewRefreshSecret()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}

func TestTokenService_GetRefreshTokenExpiry(t *testing.T) {
	ts := newTokenService()
	assert.Equal(t, 7*24*time.Hour, ts.GetRefreshTokenExpiry())
}
