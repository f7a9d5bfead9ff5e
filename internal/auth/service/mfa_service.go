package service

import (
	"context"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/dto"
	autherror "github.com/abrahamahn/abe-stack-auth/internal/errors"
	"github.com/abrahamahn/abe-stack-auth/internal/notifier"
	"github.com/abrahamahn/abe-stack-auth/internal/smscode"
	"github.com/abrahamahn/abe-stack-auth/pkg/constant"
)

// MfaService completes the second leg of challenged logins. A bad code is
// ErrWrongMfaCode and leaves the challenge token usable for a retry; a
// bad, expired or already-used challenge token is the uniform
// ErrInvalidToken.
type MfaService struct {
	repo         domain.UserRepository
	users        *UserService
	tokenService TokenGenerator
	lockout      *LockoutService
	sms          smscode.Store
	notifier     notifier.Notifier

	Clock func() time.Time
}

func NewMfaService(
	repo domain.UserRepository,
	users *UserService,
	tokenService TokenGenerator,
	lockout *LockoutService,
	sms smscode.Store,
	n notifier.Notifier,
) *MfaService {
	return &MfaService{
		repo:         repo,
		users:        users,
		tokenService: tokenService,
		lockout:      lockout,
		sms:          sms,
		notifier:     n,
		Clock:        time.Now,
	}
}

// VerifyTotpLogin completes a totp_challenge. The TOTP algorithm itself
// is the library's concern; this only validates the challenge binding and
// maps a matching code to real token issuance.
func (s *MfaService) VerifyTotpLogin(ctx context.Context, input dto.TotpVerifyInput) (*dto.TokenResponse, error) {
	user, claims, err := s.resolveChallenge(ctx, input.ChallengeToken, constant.PurposeTotpChallenge)
	if err != nil {
		return nil, err
	}
	if !user.TotpEnabled || user.TotpSecret == "" {
		return nil, autherror.ErrInvalidToken
	}

	if !totp.Validate(input.Code, user.TotpSecret) {
		s.lockout.RecordAttempt(ctx, &domain.LoginAttempt{
			Email:         user.Email,
			IPAddress:     input.IPAddress,
			UserAgent:     input.UserAgent,
			Successful:    false,
			FailureReason: constant.FailureReasonWrongMfaCode,
		})
		return nil, autherror.ErrWrongMfaCode
	}

	return s.completeLogin(ctx, user, claims, input.IPAddress, input.UserAgent)
}

// IssueSmsCode generates a code for the challenged user, subject to the
// hourly and daily send limits, and hands it to the delivery queue.
func (s *MfaService) IssueSmsCode(ctx context.Context, challengeToken string) error {
	user, _, err := s.resolveChallenge(ctx, challengeToken, constant.PurposeSmsChallenge)
	if err != nil {
		return err
	}
	if !user.PhoneVerified || user.Phone == "" {
		return autherror.ErrInvalidToken
	}

	code, err := s.sms.IssueCode(ctx, user.ID)
	if err != nil {
		return err
	}

	msg := notifier.SmsMessage{
		UserID:   user.ID,
		Phone:    user.Phone,
		Code:     code,
		IssuedAt: s.Clock(),
	}
	dispatchAsync("sms code delivery", func(bgCtx context.Context) error {
		return s.notifier.PublishSmsCode(bgCtx, msg)
	})
	return nil
}

// VerifySmsCode completes an sms_challenge. Both legs are bound to the
// same user because the stored code is keyed by the challenge token's
// user id.
func (s *MfaService) VerifySmsCode(ctx context.Context, input dto.SmsVerifyInput) (*dto.TokenResponse, error) {
	user, claims, err := s.resolveChallenge(ctx, input.ChallengeToken, constant.PurposeSmsChallenge)
	if err != nil {
		return nil, err
	}

	ok, err := s.sms.VerifyCode(ctx, user.ID, input.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.lockout.RecordAttempt(ctx, &domain.LoginAttempt{
			Email:         user.Email,
			IPAddress:     input.IPAddress,
			UserAgent:     input.UserAgent,
			Successful:    false,
			FailureReason: constant.FailureReasonWrongMfaCode,
		})
		return nil, autherror.ErrWrongMfaCode
	}

	return s.completeLogin(ctx, user, claims, input.IPAddress, input.UserAgent)
}

func (s *MfaService) resolveChallenge(ctx context.Context, challengeToken, purpose string) (*domain.User, *ChallengeClaims, error) {
	claims, err := s.tokenService.VerifyChallenge(challengeToken, purpose)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, autherror.ErrInvalidToken
	}
	// The account may have been locked between the two legs.
	if err := s.users.AssertAccountActive(ctx, user); err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// completeLogin consumes the challenge JTI before minting tokens, so one
// challenge token completes at most one login; a replay is the uniform
// ErrInvalidToken and counts as a failed attempt.
func (s *MfaService) completeLogin(ctx context.Context, user *domain.User, claims *ChallengeClaims, ip, userAgent string) (*dto.TokenResponse, error) {
	ok, err := s.sms.ConsumeChallenge(ctx, claims.ID, s.challengeRemaining(claims))
	if err != nil {
		return nil, err
	}
	if !ok {
		s.lockout.RecordAttempt(ctx, &domain.LoginAttempt{
			Email:         user.Email,
			IPAddress:     ip,
			UserAgent:     userAgent,
			Successful:    false,
			FailureReason: constant.FailureReasonChallengeToken,
		})
		return nil, autherror.ErrInvalidToken
	}

	tokens, err := s.users.IssueTokens(ctx, user, ip, userAgent)
	if err != nil {
		return nil, err
	}
	s.lockout.RecordAttempt(ctx, &domain.LoginAttempt{
		Email:      user.Email,
		IPAddress:  ip,
		UserAgent:  userAgent,
		Successful: true,
	})
	return tokens, nil
}

// challengeRemaining sizes the used-JTI marker: it only has to outlive the
// token it blocks.
func (s *MfaService) challengeRemaining(claims *ChallengeClaims) time.Duration {
	if claims.ExpiresAt == nil {
		return time.Hour
	}
	return claims.ExpiresAt.Time.Sub(s.Clock())
}
