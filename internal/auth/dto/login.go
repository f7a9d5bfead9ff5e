package dto

type LoginInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// MfaChallengeResponse is returned instead of tokens when a second factor
// is pending. Exactly one of RequiresTotp/RequiresSms is true.
type MfaChallengeResponse struct {
	RequiresTotp   bool   `json:"requires_totp,omitempty"`
	RequiresSms    bool   `json:"requires_sms,omitempty"`
	ChallengeToken string `json:"challenge_token"`
}
