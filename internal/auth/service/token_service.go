package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/abrahamahn/abe-stack-auth/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	autherror "github.com/abrahamahn/abe-stack-auth/internal/errors"
)

type TokenGenerator interface {
	GenerateAccess(user *domain.User) (string, error)
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	GenerateChallenge(userID, purpose string) (string, error)
	VerifyChallenge(tokenString, purpose string) (*ChallengeClaims, error)
	NewRefreshSecret() (raw string, hash string, err error)
	HashRefreshSecret(raw string) string
	GetRefreshTokenExpiry() time.Duration
}

type TokenService struct {
	AccessTokenSecret  string
	ChallengeSecret    string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	ChallengeTTL       time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	// TokenVersion is compared against the user record on verification;
	// bumping the user's version invalidates every outstanding access
	// token at once.
	TokenVersion int `json:"token_version"`
}

// ChallengeClaims is the stateless MFA challenge token payload. The token
// itself is never persisted; single use is enforced by marking its JTI
// consumed in Redis when the challenge completes a login.
type ChallengeClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id"`
	Purpose string `json:"purpose"`
}

func NewTokenService(accessSecret, challengeSecret string, accessMinutes, refreshMinutes, challengeMinutes int) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		ChallengeSecret:    challengeSecret,
		AccessTokenExpiry:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenExpiry: time.Duration(refreshMinutes) * time.Minute,
		ChallengeTTL:       time.Duration(challengeMinutes) * time.Minute,
	}
}

func (ts *TokenService) GenerateAccess(user *domain.User) (string, error) {
	now := time.Now()

	claims := JWTCustomClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.AccessTokenSecret))
}

// VerifyAccessToken parses and validates the given access token string.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.AccessTokenSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, autherror.ErrInvalidToken
	}

	return claims, nil
}

func (ts *TokenService) GenerateChallenge(userID, purpose string) (string, error) {
	now := time.Now()

	claims := ChallengeClaims{
		UserID:  userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ChallengeTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        generateJTI(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.ChallengeSecret))
}

// VerifyChallenge validates signature, expiry and purpose and returns the
// claims, including the JTI the caller consumes on completion. Any failure
// maps to the uniform invalid-token error so a used or expired challenge
// is indistinguishable from a forged one.
func (ts *TokenService) VerifyChallenge(tokenString, purpose string) (*ChallengeClaims, error) {
	claims := &ChallengeClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.ChallengeSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, autherror.ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.UserID == "" || claims.ID == "" {
		return nil, autherror.ErrInvalidToken
	}

	return claims, nil
}

// NewRefreshSecret generates the opaque refresh secret and its storage
// hash. The raw value leaves this process exactly once, in the response.
func (ts *TokenService) NewRefreshSecret() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, ts.HashRefreshSecret(raw), nil
}

func (ts *TokenService) HashRefreshSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}

func generateJTI() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
