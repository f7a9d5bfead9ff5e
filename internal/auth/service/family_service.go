package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abrahamahn/abe-stack-auth/config"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	autherror "github.com/abrahamahn/abe-stack-auth/internal/errors"
	"github.com/abrahamahn/abe-stack-auth/internal/notifier"
	"github.com/abrahamahn/abe-stack-auth/pkg/constant"
)

// FamilyService creates, rotates and revokes refresh-token families. One
// family is one logical session/device; reuse detection lives here.
type FamilyService struct {
	tokens       domain.TokenRepository
	tokenService TokenGenerator
	notifier     notifier.Notifier
	cfg          *config.Config

	Clock func() time.Time
}

func NewFamilyService(tokens domain.TokenRepository, ts TokenGenerator, n notifier.Notifier, cfg *config.Config) *FamilyService {
	return &FamilyService{
		tokens:       tokens,
		tokenService: ts,
		notifier:     n,
		cfg:          cfg,
		Clock:        time.Now,
	}
}

// CreateFamily mints a fresh family with its first token. The raw secret
// is returned exactly once; only its hash is stored.
func (s *FamilyService) CreateFamily(ctx context.Context, user *domain.User, ip, userAgent string) (string, string, error) {
	raw, hash, err := s.tokenService.NewRefreshSecret()
	if err != nil {
		return "", "", err
	}

	now := s.Clock()
	expiresAt := now.Add(s.tokenService.GetRefreshTokenExpiry())
	familyID := uuid.NewString()

	family := &domain.RefreshTokenFamily{
		ID:              familyID,
		UserID:          user.ID,
		CreatedAt:       now,
		LatestExpiresAt: expiresAt,
		LastIPAddress:   ip,
		LastUserAgent:   userAgent,
	}
	token := &domain.RefreshToken{
		ID:        uuid.NewString(),
		FamilyID:  familyID,
		UserID:    user.ID,
		TokenHash: hash,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	if err := s.tokens.CreateFamilyWithToken(ctx, family, token); err != nil {
		return "", "", err
	}

	// Cap concurrently active sessions per user; best effort.
	if s.cfg.MaxActiveRefreshTokens > 0 {
		_ = s.tokens.RevokeOldestFamilies(ctx, user.ID, s.cfg.MaxActiveRefreshTokens)
	}

	return familyID, raw, nil
}

// Rotate exchanges the presented raw token for a new one in the same
// family. Every failure mode, reuse detection included, surfaces as the
// uniform ErrInvalidToken so a revoked-by-reuse session is outwardly
// indistinguishable from an expired one. The reuse alert goes out of band.
func (s *FamilyService) Rotate(ctx context.Context, rawToken, ip, userAgent string) (*domain.RotationResult, error) {
	newRaw, newHash, err := s.tokenService.NewRefreshSecret()
	if err != nil {
		return nil, err
	}

	result, err := s.tokens.Rotate(ctx, domain.RotateParams{
		TokenHash:    s.tokenService.HashRefreshSecret(rawToken),
		NewTokenID:   uuid.NewString(),
		NewRawToken:  newRaw,
		NewTokenHash: newHash,
		IPAddress:    ip,
		UserAgent:    userAgent,
		Now:          s.Clock(),
		Expiry:       s.tokenService.GetRefreshTokenExpiry(),
		Grace:        s.cfg.RefreshGrace(),
		IdleTimeout:  s.cfg.IdleTimeout(),
	})
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case domain.RotationRotated, domain.RotationGraceReplay:
		return result, nil
	case domain.RotationReuseDetected:
		s.alertReuse(result)
		return nil, autherror.ErrInvalidToken
	default:
		return nil, autherror.ErrInvalidToken
	}
}

func (s *FamilyService) alertReuse(result *domain.RotationResult) {
	event := notifier.SecurityEvent{
		Type:       constant.EventTokenReuse,
		FamilyID:   result.FamilyID,
		OccurredAt: s.Clock(),
	}
	if result.User != nil {
		event.UserID = result.User.ID
		event.Email = result.User.Email
	}
	if result.OldToken != nil {
		event.IPAddress = result.OldToken.IPAddress
		event.UserAgent = result.OldToken.UserAgent
	}
	dispatchAsync("token-reuse notification", func(bgCtx context.Context) error {
		return s.notifier.PublishSecurityEvent(bgCtx, event)
	})
}

// ResolveToken maps a presented raw token to its stored row, or nil when
// unknown. Used by the session view to compute isCurrent and by logout.
func (s *FamilyService) ResolveToken(ctx context.Context, rawToken string) (*domain.RefreshToken, error) {
	if rawToken == "" {
		return nil, nil
	}
	return s.tokens.GetTokenByHash(ctx, s.tokenService.HashRefreshSecret(rawToken))
}

func (s *FamilyService) RevokeFamily(ctx context.Context, familyID, reason string) (bool, error) {
	return s.tokens.RevokeFamily(ctx, familyID, reason)
}

func (s *FamilyService) RevokeAllForUser(ctx context.Context, userID, reason string) (int, error) {
	return s.tokens.RevokeAllForUser(ctx, userID, reason)
}
