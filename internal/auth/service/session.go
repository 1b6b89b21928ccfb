package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/stockguard/auth/internal/auth/domain"
	"github.com/stockguard/auth/internal/auth/store"
	"github.com/stockguard/auth/pkg/cryptox"
	"github.com/stockguard/auth/pkg/idx"
	"github.com/stockguard/auth/pkg/jwtx"
	"github.com/stockguard/auth/pkg/slogx"
)

var (
	ErrTokenNotFound = errors.New("refresh_token_not_found")
	ErrTokenRevoked  = errors.New("refresh_token_revoked")
	ErrTokenExpired  = errors.New("refresh_token_expired")
)

// SessionService owns the refresh-session lifecycle: issuance, rotation and
// revocation. Only SHA-256 fingerprints of opaque refresh tokens are ever
// stored; the plaintext token exists in the client's hands and nowhere else.
type SessionService struct {
	Store  store.Store
	Signer jwtx.Signer

	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issue mints a new opaque refresh token for an account/device pair and
// persists its fingerprint. Any live sessions for the same device are revoked
// first, in the same transaction, so a device holds at most one active
// session.
func (s *SessionService) Issue(ctx context.Context, accountID, deviceID string) (string, domain.RefreshSession, error) {
	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.RefreshSession{}, err
	}

	sess := domain.RefreshSession{
		ID:        idx.New().String(),
		AccountID: accountID,
		DeviceID:  deviceID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: time.Now().UTC().Add(s.RefreshTTL),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if deviceID != "" {
			if err := tx.RefreshSessions().RevokeDeviceSessions(ctx, accountID, deviceID); err != nil {
				return err
			}
		}
		return tx.RefreshSessions().CreateRefreshSession(ctx, sess)
	})
	if err != nil {
		return "", domain.RefreshSession{}, err
	}

	return opaque, sess, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// one issued for the same account and device, along with a fresh access
// token. A token can be rotated exactly once; replaying a rotated token
// reports it as revoked.
func (s *SessionService) Refresh(ctx context.Context, presented string) (domain.Identity, error) {
	l := slogx.FromContext(ctx)
	hash := cryptox.FingerprintToken(presented)

	var (
		acct    domain.Account
		newSess domain.RefreshSession
		opaque  string
		callErr error
	)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		sess, err := tx.RefreshSessions().GetRefreshSessionByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				callErr = ErrTokenNotFound
				return nil
			}
			return err
		}

		if sess.Revoked {
			callErr = ErrTokenRevoked
			return nil
		}
		if time.Now().UTC().After(sess.ExpiresAt) {
			// Expired rows are dead weight; drop eagerly and commit.
			if err := tx.RefreshSessions().DeleteRefreshSession(ctx, sess.ID); err != nil {
				return err
			}
			callErr = ErrTokenExpired
			return nil
		}

		// Single-use gate: a concurrent rotation of the same token wins
		// here and the loser observes the token as already revoked.
		if err := tx.RefreshSessions().ConsumeRefreshSession(ctx, hash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				callErr = ErrTokenRevoked
				return nil
			}
			return err
		}

		a, err := tx.Accounts().GetAccountByID(ctx, sess.AccountID)
		if err != nil {
			return err
		}
		if a.Locked {
			callErr = ErrAccountLocked
			return nil
		}
		if !a.Enabled {
			callErr = ErrAccountDisabled
			return nil
		}

		opaque, err = cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return err
		}
		newSess = domain.RefreshSession{
			ID:        idx.New().String(),
			AccountID: sess.AccountID,
			DeviceID:  sess.DeviceID,
			TokenHash: cryptox.FingerprintToken(opaque),
			ExpiresAt: time.Now().UTC().Add(s.RefreshTTL),
		}
		if err := tx.RefreshSessions().CreateRefreshSession(ctx, newSess); err != nil {
			return err
		}

		acct = a
		return nil
	})
	if err != nil {
		return domain.Identity{}, err
	}
	if callErr != nil {
		return domain.Identity{}, callErr
	}

	claims := jwtx.NewAccessClaims(
		acct.PhoneNumber,
		acct.ID,
		string(acct.Role),
		s.AccessTTL,
		s.Issuer,
		time.Now(),
	)
	accessToken, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.Identity{}, err
	}

	l.Debug("refresh token rotated", slog.String("account_id", acct.ID))
	return domain.Identity{
		Account: acct,
		Tokens: domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: opaque,
			TokenType:    "Bearer",
			ExpiresIn:    s.AccessTTL,
		},
	}, nil
}

// Revoke marks the session for the presented token revoked. Revoking an
// unknown or already-revoked token is a no-op; logout must not fail.
func (s *SessionService) Revoke(ctx context.Context, presented string) error {
	hash := cryptox.FingerprintToken(presented)
	err := s.Store.RefreshSessions().RevokeRefreshSession(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// RevokeAll revokes every live session belonging to an account.
func (s *SessionService) RevokeAll(ctx context.Context, accountID string) error {
	return s.Store.RefreshSessions().RevokeAccountSessions(ctx, accountID)
}

// SweepExpired deletes refresh sessions past their expiry. Run periodically
// by the housekeeper.
func (s *SessionService) SweepExpired(ctx context.Context) error {
	return s.Store.RefreshSessions().DeleteExpiredRefreshSessions(ctx)
}
