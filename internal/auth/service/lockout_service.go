package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/abrahamahn/abe-stack-auth/config"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	autherror "github.com/abrahamahn/abe-stack-auth/internal/errors"
	"github.com/abrahamahn/abe-stack-auth/internal/notifier"
	"github.com/abrahamahn/abe-stack-auth/pkg/constant"
)

// LockoutService computes brute-force lockout state and progressive delay
// from the login-attempt history. It is keyed by the canonical email, so
// delay accrues even for attempts against nonexistent accounts.
type LockoutService struct {
	repo     domain.UserRepository
	notifier notifier.Notifier
	cfg      *config.Config

	// Clock is overridable in tests.
	Clock func() time.Time
}

func NewLockoutService(repo domain.UserRepository, n notifier.Notifier, cfg *config.Config) *LockoutService {
	return &LockoutService{
		repo:     repo,
		notifier: n,
		cfg:      cfg,
		Clock:    time.Now,
	}
}

// CanonicalEmail is the identifier used for attempt counting: the login
// email, trimmed and lower-cased, never the raw user-supplied string.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Check returns an AccountLockedError when the identifier has reached the
// failure threshold inside the window and the lockout has not yet expired.
// The error carries no reason so attempt counts are not leaked.
func (s *LockoutService) Check(ctx context.Context, email string) error {
	now := s.Clock()
	count, lastFailure, err := s.repo.CountRecentFailures(ctx, CanonicalEmail(email), now.Add(-s.cfg.LoginWindow()))
	if err != nil {
		return err
	}
	if count < s.cfg.LoginMaxAttempts || lastFailure == nil {
		return nil
	}

	lockedUntil := lastFailure.Add(s.cfg.LockoutDuration())
	if now.Before(lockedUntil) {
		return autherror.NewAccountLocked("", lockedUntil.Sub(now))
	}
	return nil
}

// ProgressiveDelay returns min(base * 2^failures, max) for identifiers
// with at least one recent failure, zero otherwise.
func (s *LockoutService) ProgressiveDelay(ctx context.Context, email string) time.Duration {
	if !s.cfg.ProgressiveDelay {
		return 0
	}
	now := s.Clock()
	count, _, err := s.repo.CountRecentFailures(ctx, CanonicalEmail(email), now.Add(-s.cfg.LoginWindow()))
	if err != nil {
		log.Printf("warn: failed to compute progressive delay for %s: %v", CanonicalEmail(email), err)
		return 0
	}
	if count <= 0 {
		return 0
	}

	max := time.Duration(s.cfg.MaxProgressiveDelayMs) * time.Millisecond
	if count > 30 {
		return max
	}
	delay := time.Duration(s.cfg.BaseDelayMs) * time.Millisecond * (1 << uint(count))
	if delay > max {
		return max
	}
	return delay
}

// Wait sleeps for the given duration without holding any lock, returning
// early when the request is cancelled.
func (s *LockoutService) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RecordAttempt writes the attempt and, when a failure trips the lockout
// threshold, emits an account-locked event to the notifier.
func (s *LockoutService) RecordAttempt(ctx context.Context, attempt *domain.LoginAttempt) {
	attempt.Email = CanonicalEmail(attempt.Email)
	if attempt.AttemptTime.IsZero() {
		attempt.AttemptTime = s.Clock()
	}

	if err := s.repo.RecordLoginAttempt(ctx, attempt); err != nil {
		log.Printf("warn: failed to record login attempt for %s: %v", attempt.Email, err)
		return
	}
	if attempt.Successful {
		return
	}
	// Attempts rejected for being locked do not count toward the threshold,
	// so they can never re-trip it.
	if attempt.FailureReason == constant.FailureReasonLocked {
		return
	}

	now := s.Clock()
	count, _, err := s.repo.CountRecentFailures(ctx, attempt.Email, now.Add(-s.cfg.LoginWindow()))
	if err != nil {
		log.Printf("warn: failed to count failures for %s: %v", attempt.Email, err)
		return
	}
	// Fire exactly when the threshold is reached, not on every attempt past it.
	if count == s.cfg.LoginMaxAttempts {
		event := notifier.SecurityEvent{
			Type:         constant.EventAccountLocked,
			Email:        attempt.Email,
			IPAddress:    attempt.IPAddress,
			UserAgent:    attempt.UserAgent,
			AttemptCount: count,
			OccurredAt:   now,
		}
		dispatchAsync("account-locked notification", func(bgCtx context.Context) error {
			return s.notifier.PublishSecurityEvent(bgCtx, event)
		})
	}
}
