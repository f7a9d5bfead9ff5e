package dto

type TotpVerifyInput struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
	IPAddress      string `json:"-"`
	UserAgent      string `json:"-"`
}

type SmsSendInput struct {
	ChallengeToken string `json:"challenge_token"`
}

type SmsVerifyInput struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
	IPAddress      string `json:"-"`
	UserAgent      string `json:"-"`
}
