package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abrahamahn/abe-stack-auth/config"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/dto"
	autherror "github.com/abrahamahn/abe-stack-auth/internal/errors"
	"github.com/abrahamahn/abe-stack-auth/pkg/constant"
)

// LoginOutcome is the tagged result of a login: either a token pair or a
// pending second-factor challenge. Exactly one payload field is set for
// the given Kind.
type LoginOutcome struct {
	Kind      LoginOutcomeKind
	Tokens    *dto.TokenResponse
	Challenge *dto.MfaChallengeResponse
}

type LoginOutcomeKind int

const (
	LoginTokens LoginOutcomeKind = iota
	LoginTotpChallenge
	LoginSmsChallenge
)

// UserService composes credential verification, lockout, MFA branching
// and token issuance into the sign-in and refresh flows.
type UserService struct {
	repo         domain.UserRepository
	families     *FamilyService
	tokenService TokenGenerator
	password     *PasswordService
	lockout      *LockoutService
	cfg          *config.Config

	Clock func() time.Time
}

func NewUserService(
	repo domain.UserRepository,
	families *FamilyService,
	tokenService TokenGenerator,
	password *PasswordService,
	lockout *LockoutService,
	cfg *config.Config,
) *UserService {
	return &UserService{
		repo:         repo,
		families:     families,
		tokenService: tokenService,
		password:     password,
		lockout:      lockout,
		cfg:          cfg,
		Clock:        time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	email := CanonicalEmail(input.Email)

	existingUser, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashedPassword, err := s.password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.Clock()

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         constant.DefaultUserRole,
		Phone:        input.Phone,
		TokenVersion: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login runs the sign-in state machine. Every terminal exit records
// exactly one login attempt with its outcome.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*LoginOutcome, error) {
	email := CanonicalEmail(input.Email)

	if err := s.lockout.Check(ctx, email); err != nil {
		s.recordFailure(ctx, input, constant.FailureReasonLocked)
		return nil, err
	}

	// The artificial wait runs before credential verification so delay
	// accrues for attempts against nonexistent accounts too. It must be
	// cancellable and holds nothing while sleeping.
	if err := s.lockout.Wait(ctx, s.lockout.ProgressiveDelay(ctx, email)); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	var storedHash string
	if user != nil {
		storedHash = user.PasswordHash
	}
	// Verify runs against a dummy hash when the user is unknown, so the
	// two failures are indistinguishable by timing.
	if !s.password.Verify(input.Password, storedHash) || user == nil {
		reason := constant.FailureReasonBadPassword
		if user == nil {
			reason = constant.FailureReasonUnknownUser
		}
		s.recordFailure(ctx, input, reason)
		return nil, autherror.ErrInvalidCredentials
	}

	if err := s.AssertAccountActive(ctx, user); err != nil {
		s.recordFailure(ctx, input, constant.FailureReasonLocked)
		return nil, err
	}

	if user.DeletedAt != nil {
		if !user.IsReactivatable(s.Clock(), s.cfg.SoftDeleteGrace()) {
			// Deactivated and deleted accounts answer exactly like a bad
			// password so account status cannot be probed.
			s.recordFailure(ctx, input, constant.FailureReasonDeactivated)
			return nil, autherror.ErrInvalidCredentials
		}
		// Inside the grace period the login doubles as reactivation.
		userID := user.ID
		dispatchAsync("account reactivation", func(bgCtx context.Context) error {
			return s.repo.ClearDeletedAt(bgCtx, userID)
		})
	}

	if !user.EmailVerified {
		s.recordFailure(ctx, input, constant.FailureReasonNotVerified)
		return nil, autherror.ErrEmailNotVerified
	}

	s.maybeRehash(user, input.Password)

	// MFA branch: TOTP wins over SMS; either defers token issuance to the
	// challenge-completion flow.
	if user.TotpEnabled {
		challenge, err := s.tokenService.GenerateChallenge(user.ID, constant.PurposeTotpChallenge)
		if err != nil {
			return nil, err
		}
		return &LoginOutcome{
			Kind:      LoginTotpChallenge,
			Challenge: &dto.MfaChallengeResponse{RequiresTotp: true, ChallengeToken: challenge},
		}, nil
	}
	if user.PhoneVerified {
		challenge, err := s.tokenService.GenerateChallenge(user.ID, constant.PurposeSmsChallenge)
		if err != nil {
			return nil, err
		}
		return &LoginOutcome{
			Kind:      LoginSmsChallenge,
			Challenge: &dto.MfaChallengeResponse{RequiresSms: true, ChallengeToken: challenge},
		}, nil
	}

	tokens, err := s.IssueTokens(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.lockout.RecordAttempt(ctx, &domain.LoginAttempt{
		Email:      email,
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
		Successful: true,
	})

	return &LoginOutcome{Kind: LoginTokens, Tokens: tokens}, nil
}

// AssertAccountActive enforces the administrative lock. An expired lock is
// auto-cleared in the background and the login proceeds. A nil user maps
// to the unauthorized error so callers can distinguish it from a lock.
func (s *UserService) AssertAccountActive(ctx context.Context, user *domain.User) error {
	if user == nil {
		return autherror.ErrUnauthorized
	}
	now := s.Clock()
	if user.IsAdminLocked(now) {
		return autherror.NewAccountLocked(user.LockReason, user.LockedUntil.Sub(now))
	}
	if user.HasExpiredLock(now) {
		userID := user.ID
		dispatchAsync("expired-lock cleanup", func(bgCtx context.Context) error {
			return s.repo.ClearLock(bgCtx, userID)
		})
	}
	return nil
}

// IssueTokens mints the access token and opens a fresh token family. Also
// called by the MFA flows after challenge completion.
func (s *UserService) IssueTokens(ctx context.Context, user *domain.User, ip, userAgent string) (*dto.TokenResponse, error) {
	accessToken, err := s.tokenService.GenerateAccess(user)
	if err != nil {
		return nil, err
	}

	_, refreshToken, err := s.families.CreateFamily(ctx, user, ip, userAgent)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh rotates the presented refresh token and mints an access token
// carrying the owner's current token version, so a version bump elsewhere
// cuts off all outstanding access tokens on their next refresh.
func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	result, err := s.families.Rotate(ctx, input.RefreshToken, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokenService.GenerateAccess(result.User)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: result.RawToken,
	}, nil
}

// Logout revokes the family behind the presented refresh token. Unknown
// tokens are a no-op so logout stays idempotent.
func (s *UserService) Logout(ctx context.Context, rawToken string) error {
	token, err := s.families.ResolveToken(ctx, rawToken)
	if err != nil {
		return err
	}
	if token == nil {
		return nil
	}
	_, err = s.families.RevokeFamily(ctx, token.FamilyID, constant.RevokeReasonLogout)
	return err
}

func (s *UserService) LogoutAll(ctx context.Context, userID string) (int, error) {
	return s.families.RevokeAllForUser(ctx, userID, constant.RevokeReasonLogoutAll)
}

// maybeRehash upgrades outdated password hashes in the background without
// blocking the response. The old hash stays in place if every retry fails.
func (s *UserService) maybeRehash(user *domain.User, password string) {
	if !s.password.NeedsRehash(user.PasswordHash) {
		return
	}
	userID := user.ID
	ps := s.password
	repo := s.repo
	dispatchAsync("password rehash", func(bgCtx context.Context) error {
		newHash, err := ps.Hash(password)
		if err != nil {
			return err
		}
		return repo.UpdatePasswordHash(bgCtx, userID, newHash)
	})
}

func (s *UserService) recordFailure(ctx context.Context, input dto.LoginInput, reason string) {
	s.lockout.RecordAttempt(ctx, &domain.LoginAttempt{
		Email:         input.Email,
		IPAddress:     input.IPAddress,
		UserAgent:     input.UserAgent,
		Successful:    false,
		FailureReason: reason,
	})
}
