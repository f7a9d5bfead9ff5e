package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string // empty marks a magic-link only account
	Role         string

	EmailVerified bool
	TotpEnabled   bool
	TotpSecret    string
	Phone         string
	PhoneVerified bool

	// TokenVersion invalidates all outstanding access tokens when bumped.
	TokenVersion int

	// Administrative lock, distinct from brute-force lockout.
	LockedUntil *time.Time
	LockReason  string

	DeletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdminLocked reports whether an administrative lock is still in force.
func (u *User) IsAdminLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// HasExpiredLock reports whether a past administrative lock is waiting to
// be auto-cleared.
func (u *User) HasExpiredLock(now time.Time) bool {
	return u.LockedUntil != nil && !u.LockedUntil.After(now)
}

// IsReactivatable reports whether a soft-deleted account is still inside
// its grace period and may log in again.
func (u *User) IsReactivatable(now time.Time, grace time.Duration) bool {
	return u.DeletedAt != nil && now.Sub(*u.DeletedAt) <= grace
}
