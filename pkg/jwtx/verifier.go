package jwtx

import "errors"

// Verifier validates a token and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// NewVerifierHS256 creates a verifier for HS256 tokens signed with the same
// shared secret. If issuer is non-empty, the iss claim must match.
func NewVerifierHS256(secret []byte, issuer string) (Verifier, error) {
	s, err := newHS256(secret)
	if err != nil {
		return nil, err
	}
	s.issuer = issuer
	return s, nil
}
