package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte(strings.Repeat("s", 32))

func TestHS256RoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)

	verifier, err := NewVerifierHS256(testSecret, "stockguard-auth")
	require.NoError(t, err)

	now := time.Now()
	claims := NewAccessClaims("+15551234567", "acct-1", "USER", time.Minute, "stockguard-auth", now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")))

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "+15551234567", got.Subject)
	require.Equal(t, "acct-1", got.UID)
	require.Equal(t, "USER", got.Role)
	require.NotEmpty(t, got.ID, "jti must be set")
}

func TestHS256RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewSignerHS256([]byte("short"))
	require.Error(t, err)
}

func TestHS256Expiry(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := NewVerifierHS256(testSecret, "")
	require.NoError(t, err)

	claims := NewAccessClaims("+15551234567", "acct-1", "USER", time.Minute, "iss", time.Now().Add(-2*time.Minute))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestHS256WrongSecret(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := NewVerifierHS256([]byte(strings.Repeat("x", 32)), "")
	require.NoError(t, err)

	token, err := signer.Sign(NewAccessClaims("sub", "uid", "USER", time.Minute, "iss", time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestHS256IssuerMismatch(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := NewVerifierHS256(testSecret, "expected-issuer")
	require.NoError(t, err)

	token, err := signer.Sign(NewAccessClaims("sub", "uid", "USER", time.Minute, "other-issuer", time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestHS256RejectsGarbage(t *testing.T) {
	t.Parallel()

	verifier, err := NewVerifierHS256(testSecret, "")
	require.NoError(t, err)

	_, err = verifier.Verify("not.a.token")
	require.Error(t, err)
}
