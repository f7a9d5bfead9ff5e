package constant

const (
	DefaultUserRole = "user"
	AdminRole       = "admin"
)

// Failure reason codes recorded on login attempts.
const (
	FailureReasonBadPassword    = "bad_password"
	FailureReasonUnknownUser    = "unknown_user"
	FailureReasonLocked         = "locked"
	FailureReasonNotVerified    = "email_not_verified"
	FailureReasonDeactivated    = "deactivated"
	FailureReasonWrongMfaCode   = "wrong_mfa_code"
	FailureReasonChallengeToken = "invalid_challenge_token"
)

// Family revocation reasons.
const (
	RevokeReasonLogout      = "logout"
	RevokeReasonLogoutAll   = "logout_all"
	RevokeReasonUserRevoked = "user_revoked"
	RevokeReasonReuse       = "token_reuse_detected"
	RevokeReasonAdmin       = "admin_revoked"
	RevokeReasonSessionCap  = "session_limit"
)

// Security event types published to the notifier queue.
const (
	EventAccountLocked = "account_locked"
	EventTokenReuse    = "token_reuse"
)

// MFA challenge token purposes.
const (
	PurposeTotpChallenge = "totp_challenge"
	PurposeSmsChallenge  = "sms_challenge"
)
