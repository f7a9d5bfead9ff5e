package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/abrahamahn/abe-stack-auth/internal/auth/domain UserRepository
//go:generate mockgen -destination=../../mocks/mock_token_repository.go -package=mocks github.com/abrahamahn/abe-stack-auth/internal/auth/domain TokenRepository

import (
	"context"
	"time"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	ClearLock(ctx context.Context, userID string) error
	ClearDeletedAt(ctx context.Context, userID string) error

	RecordLoginAttempt(ctx context.Context, attempt *LoginAttempt) error
	// CountRecentFailures returns the number of failed attempts for the
	// canonical email since the given time, plus the timestamp of the most
	// recent failure (nil when there are none).
	CountRecentFailures(ctx context.Context, email string, since time.Time) (int, *time.Time, error)
}

type TokenRepository interface {
	// CreateFamilyWithToken inserts the family and its first token in one
	// transaction.
	CreateFamilyWithToken(ctx context.Context, family *RefreshTokenFamily, token *RefreshToken) error
	// Rotate runs the whole read-check-write rotation sequence inside one
	// transaction, holding a row lock on the presented token so concurrent
	// rotations of the same token serialize.
	Rotate(ctx context.Context, params RotateParams) (*RotationResult, error)
	GetTokenByHash(ctx context.Context, hash string) (*RefreshToken, error)
	GetFamilyByID(ctx context.Context, familyID string) (*RefreshTokenFamily, error)
	// RevokeFamily is idempotent; it reports whether this call performed
	// the revocation.
	RevokeFamily(ctx context.Context, familyID, reason string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID, reason string) (int, error)
	GetActiveFamiliesByUserID(ctx context.Context, userID string, now time.Time) ([]*RefreshTokenFamily, error)
	// RevokeOldestFamilies keeps at most max active families per user by
	// revoking the oldest ones beyond the cap.
	RevokeOldestFamilies(ctx context.Context, userID string, max int) error
}
