package service

import (
	"context"
	"time"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/dto"
	autherror "github.com/abrahamahn/abe-stack-auth/internal/errors"
	"github.com/abrahamahn/abe-stack-auth/pkg/constant"
)

// SessionService exposes the device view over refresh token families.
// Each active family is one "session"; revoking it severs that device.
type SessionService struct {
	tokens   domain.TokenRepository
	families *FamilyService

	Clock func() time.Time
}

func NewSessionService(tokens domain.TokenRepository, families *FamilyService) *SessionService {
	return &SessionService{
		tokens:   tokens,
		families: families,
		Clock:    time.Now,
	}
}

// ListSessions returns the user's active families, newest first. When the
// caller supplies its own raw refresh token, the matching family is marked
// current; an unrecognized token simply marks nothing.
func (s *SessionService) ListSessions(ctx context.Context, userID, currentRawToken string) ([]dto.SessionOutput, error) {
	families, err := s.tokens.GetActiveFamiliesByUserID(ctx, userID, s.Clock())
	if err != nil {
		return nil, err
	}

	currentFamilyID := ""
	if currentRawToken != "" {
		token, err := s.families.ResolveToken(ctx, currentRawToken)
		if err != nil {
			return nil, err
		}
		if token != nil {
			currentFamilyID = token.FamilyID
		}
	}

	out := make([]dto.SessionOutput, 0, len(families))
	for _, f := range families {
		out = append(out, dto.SessionOutput{
			ID:        f.ID,
			IPAddress: f.LastIPAddress,
			UserAgent: f.LastUserAgent,
			CreatedAt: f.CreatedAt,
			ExpiresAt: f.LatestExpiresAt,
			IsCurrent: f.ID == currentFamilyID,
		})
	}
	return out, nil
}

// RevokeSession revokes one of the user's own families. Someone else's
// family id is indistinguishable from a nonexistent one.
func (s *SessionService) RevokeSession(ctx context.Context, userID, familyID string) error {
	family, err := s.tokens.GetFamilyByID(ctx, familyID)
	if err != nil {
		return err
	}
	if family == nil || family.UserID != userID {
		return autherror.ErrUnauthorized
	}
	if family.IsRevoked() {
		return nil
	}
	_, err = s.families.RevokeFamily(ctx, familyID, constant.RevokeReasonUserRevoked)
	return err
}

// RevokeAllExceptCurrent revokes every active family but the one holding
// the supplied refresh token. The count reflects families this call
// actually revoked; a concurrent revoke of the same family counts once.
func (s *SessionService) RevokeAllExceptCurrent(ctx context.Context, userID, currentRawToken string) (int, error) {
	currentFamilyID := ""
	if currentRawToken != "" {
		token, err := s.families.ResolveToken(ctx, currentRawToken)
		if err != nil {
			return 0, err
		}
		if token != nil && token.UserID == userID {
			currentFamilyID = token.FamilyID
		}
	}

	families, err := s.tokens.GetActiveFamiliesByUserID(ctx, userID, s.Clock())
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, f := range families {
		if f.ID == currentFamilyID {
			continue
		}
		ok, err := s.families.RevokeFamily(ctx, f.ID, constant.RevokeReasonUserRevoked)
		if err != nil {
			return revoked, err
		}
		if ok {
			revoked++
		}
	}
	return revoked, nil
}

// RevokeAllForUser is the admin force-logout: every family goes, including
// the current one.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	return s.families.RevokeAllForUser(ctx, userID, constant.RevokeReasonAdmin)
}
