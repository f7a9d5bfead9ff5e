package domain

import "time"

// RefreshToken is one issued, single-use opaque secret. Only the SHA-256
// hash of the secret is ever stored.
type RefreshToken struct {
	ID        string
	FamilyID  string
	UserID    string
	TokenHash string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time

	// Set when the token is rotated away. SupersededBy points at the token
	// that replaced it; SupersedingToken keeps the raw replacement secret
	// so a benign retry inside the grace window can be answered with the
	// same secret. It is never read once the grace window has passed.
	ConsumedAt       *time.Time
	SupersededBy     string
	SupersedingToken string
}

func (t *RefreshToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// RefreshTokenFamily is the unit of a logical session. A family is either
// active (exactly one current unconsumed token) or revoked, which is
// terminal.
type RefreshTokenFamily struct {
	ID           string
	UserID       string
	CreatedAt    time.Time
	RevokedAt    *time.Time
	RevokeReason string

	// Denormalized for session listing.
	LatestExpiresAt time.Time
	LastIPAddress   string
	LastUserAgent   string
}

func (f *RefreshTokenFamily) IsRevoked() bool {
	return f.RevokedAt != nil
}

type LoginAttempt struct {
	ID            string
	Email         string
	IPAddress     string
	UserAgent     string
	AttemptTime   time.Time
	Successful    bool
	FailureReason string
}

// RotationOutcome classifies the result of a rotation transaction.
type RotationOutcome int

const (
	// RotationRotated: the presented token was current; a new token was
	// issued in the same family.
	RotationRotated RotationOutcome = iota
	// RotationGraceReplay: the presented token was consumed moments ago;
	// the caller gets the same superseding secret back.
	RotationGraceReplay
	// RotationReuseDetected: the presented token was consumed outside the
	// grace window. The whole family has been revoked.
	RotationReuseDetected
	RotationNotFound
	RotationFamilyRevoked
	RotationExpired
	RotationIdleTimedOut
)

// RotateParams carries everything the rotation transaction needs. The
// service generates the replacement secret up front so the repository
// never touches crypto.
type RotateParams struct {
	TokenHash    string
	NewTokenID   string
	NewRawToken  string
	NewTokenHash string
	IPAddress    string
	UserAgent    string
	Now          time.Time
	Expiry       time.Duration
	Grace        time.Duration
	IdleTimeout  time.Duration
}

// RotationResult is returned by TokenRepository.Rotate. User is populated
// on the success paths so the caller can mint a new access token without a
// second round-trip; OldToken is populated on reuse detection for the
// security event.
type RotationResult struct {
	Outcome  RotationOutcome
	FamilyID string
	TokenID  string
	RawToken string
	User     *User
	OldToken *RefreshToken
}
