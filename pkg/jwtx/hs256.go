package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// hs256 signs and verifies tokens with a shared HMAC-SHA256 secret. The
// secret must carry at least 256 bits of entropy.
type hs256 struct {
	secret []byte
	issuer string
	alg    string
}

const minSecretBytes = 32

func newHS256(secret []byte) (*hs256, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("jwtx: HS256 secret must be at least %d bytes, got %d", minSecretBytes, len(secret))
	}
	return &hs256{
		secret: secret,
		alg:    jwt.SigningMethodHS256.Alg(),
	}, nil
}

func (s *hs256) Alg() string { return s.alg }

// Sign takes your claims and turns them into a signed compact token string.
func (s *hs256) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify validates the token string and returns its parsed Claims.
func (s *hs256) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	if s.issuer != "" {
		iss, err := claims.GetIssuer()
		if err != nil || iss != s.issuer {
			return Claims{}, ErrIssuer
		}
	}

	return *claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
