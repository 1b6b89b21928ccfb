package domain

import "time"

// TokenPair is what a successful authentication returns: a short-lived signed
// access token and the opaque refresh token used to renew it.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access token lifetime
}

// Identity is the result of login, registration, or OTP verification: the
// authenticated account plus freshly minted credentials.
type Identity struct {
	Account Account
	Tokens  TokenPair
}
