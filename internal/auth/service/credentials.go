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

// LockoutThreshold is the number of consecutive failed password attempts
// after which an account locks.
const LockoutThreshold = 5

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountLocked      = errors.New("account_locked")
	ErrAccountDisabled    = errors.New("account_disabled")
	ErrDuplicatePhone     = errors.New("duplicate_phone_number")
	ErrWrongOldPassword   = errors.New("wrong_old_password")
	ErrAccountNotFound    = errors.New("account_not_found")
)

// CredentialService orchestrates password-based registration and login
// against the account store, applying the progressive lockout policy.
type CredentialService struct {
	Store    store.Store
	Sessions *SessionService
	Signer   jwtx.Signer

	Issuer    string
	AccessTTL time.Duration
}

type RegisterParams struct {
	PhoneNumber string
	Password    string
	FullName    string
	DeviceID    string
	DeviceToken string
}

type LoginParams struct {
	PhoneNumber string
	Password    string
	DeviceID    string
	DeviceToken string
}

// Register creates a new account and returns a freshly minted identity.
func (s *CredentialService) Register(ctx context.Context, p RegisterParams) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.Identity{}, err
	}

	now := time.Now().UTC()
	acct := domain.Account{
		ID:           idx.New().String(),
		PhoneNumber:  p.PhoneNumber,
		PasswordHash: hash,
		FullName:     p.FullName,
		Role:         domain.RoleUser,
		Enabled:      true,
		DeviceID:     p.DeviceID,
		DeviceToken:  p.DeviceToken,
		LastLogin:    &now,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Identity{}, ErrDuplicatePhone
		}
		return domain.Identity{}, err
	}

	l.Info("account registered", slog.String("account_id", acct.ID))
	return s.mintIdentity(ctx, acct, p.DeviceID)
}

// Login verifies a phone/password pair. Failed attempts are persisted even
// though the call fails: the attempt itself is the fact being recorded. The
// whole read-modify-write runs in one transaction so concurrent attempts
// against the same account serialize and the lockout trip is never lost.
func (s *CredentialService) Login(ctx context.Context, p LoginParams) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	var (
		acct     domain.Account
		loginErr error
		tripped  bool
	)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		a, err := tx.Accounts().GetAccountByPhone(ctx, p.PhoneNumber)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Same error as a wrong password so callers can't
				// enumerate registered numbers.
				loginErr = ErrInvalidCredentials
				return nil
			}
			return err
		}

		if a.Locked {
			loginErr = ErrAccountLocked
			return nil
		}
		if !a.Enabled {
			loginErr = ErrAccountDisabled
			return nil
		}

		if err := cryptox.VerifyPassword(p.Password, a.PasswordHash); err != nil {
			a.FailedLoginAttempts++
			if a.FailedLoginAttempts >= LockoutThreshold {
				now := time.Now().UTC()
				a.Locked = true
				a.LockedAt = &now
				tripped = true
			}
			if err := tx.Accounts().UpdateAccount(ctx, a); err != nil {
				return err
			}
			if tripped {
				// A locked account keeps no live sessions.
				if err := tx.RefreshSessions().RevokeAccountSessions(ctx, a.ID); err != nil {
					return err
				}
			}
			acct = a
			loginErr = ErrInvalidCredentials
			return nil // commit: the failed attempt must be recorded
		}

		now := time.Now().UTC()
		a.FailedLoginAttempts = 0
		a.LastLogin = &now
		if p.DeviceID != "" {
			a.DeviceID = p.DeviceID
		}
		if p.DeviceToken != "" {
			a.DeviceToken = p.DeviceToken
		}
		if err := tx.Accounts().UpdateAccount(ctx, a); err != nil {
			return err
		}

		acct = a
		return nil
	})
	if err != nil {
		return domain.Identity{}, err
	}

	if tripped {
		l.Warn("account locked after repeated failures",
			slog.String("account_id", acct.ID),
			slog.Int("attempts", acct.FailedLoginAttempts),
		)
	}
	if loginErr != nil {
		return domain.Identity{}, loginErr
	}

	l.Info("login succeeded", slog.String("account_id", acct.ID))
	return s.mintIdentity(ctx, acct, p.DeviceID)
}

// Unlock clears the lockout flag and failed-attempt counter. Administrative.
func (s *CredentialService) Unlock(ctx context.Context, accountID string) error {
	return s.updateAccount(ctx, accountID, func(a *domain.Account) error {
		a.Locked = false
		a.LockedAt = nil
		a.FailedLoginAttempts = 0
		return nil
	})
}

// SetEnabled flips the enabled flag. Disabling does not touch the lockout
// axis; the two are independent.
func (s *CredentialService) SetEnabled(ctx context.Context, accountID string, enabled bool) error {
	return s.updateAccount(ctx, accountID, func(a *domain.Account) error {
		a.Enabled = enabled
		return nil
	})
}

// ChangePassword verifies the old password and stores a new hash. All of the
// account's refresh sessions are revoked so stolen long-lived tokens die with
// the old password.
func (s *CredentialService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	err := s.updateAccount(ctx, accountID, func(a *domain.Account) error {
		if err := cryptox.VerifyPassword(oldPassword, a.PasswordHash); err != nil {
			return ErrWrongOldPassword
		}
		hash, err := cryptox.HashPassword(newPassword)
		if err != nil {
			return err
		}
		a.PasswordHash = hash
		return nil
	})
	if err != nil {
		return err
	}
	return s.Sessions.RevokeAll(ctx, accountID)
}

// UpdateProfile mutates the account's profile fields. Empty fields are left
// unchanged.
func (s *CredentialService) UpdateProfile(ctx context.Context, accountID string, fullName, profileImageURL, deviceToken string) (domain.Account, error) {
	var out domain.Account
	err := s.updateAccount(ctx, accountID, func(a *domain.Account) error {
		if fullName != "" {
			a.FullName = fullName
		}
		if profileImageURL != "" {
			a.ProfileImageURL = profileImageURL
		}
		if deviceToken != "" {
			a.DeviceToken = deviceToken
		}
		out = *a
		return nil
	})
	return out, err
}

// GetAccount fetches an account by id.
func (s *CredentialService) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	a, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	return a, err
}

// CompleteOtpLogin turns a verified OTP ceremony into a full identity. The
// account must still be in a loginable state; a lockout or disable that
// landed mid-ceremony wins over the verified code.
func (s *CredentialService) CompleteOtpLogin(ctx context.Context, accountID, deviceID, deviceToken string) (domain.Identity, error) {
	var acct domain.Account
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		a, err := tx.Accounts().GetAccountByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if a.Locked {
			return ErrAccountLocked
		}
		if !a.Enabled {
			return ErrAccountDisabled
		}

		now := time.Now().UTC()
		a.FailedLoginAttempts = 0
		a.LastLogin = &now
		if deviceID != "" {
			a.DeviceID = deviceID
		}
		if deviceToken != "" {
			a.DeviceToken = deviceToken
		}
		if err := tx.Accounts().UpdateAccount(ctx, a); err != nil {
			return err
		}
		acct = a
		return nil
	})
	if err != nil {
		return domain.Identity{}, err
	}
	return s.mintIdentity(ctx, acct, deviceID)
}

// updateAccount runs a single atomic read-modify-write on one account.
func (s *CredentialService) updateAccount(ctx context.Context, accountID string, mutate func(*domain.Account) error) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		a, err := tx.Accounts().GetAccountByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if err := mutate(&a); err != nil {
			return err
		}
		return tx.Accounts().UpdateAccount(ctx, a)
	})
}

// mintIdentity signs an access token and issues a refresh session for the
// account, forming the login/registration result.
func (s *CredentialService) mintIdentity(ctx context.Context, acct domain.Account, deviceID string) (domain.Identity, error) {
	accessToken, err := s.signAccess(acct)
	if err != nil {
		return domain.Identity{}, err
	}

	refreshOpaque, _, err := s.Sessions.Issue(ctx, acct.ID, deviceID)
	if err != nil {
		return domain.Identity{}, err
	}

	return domain.Identity{
		Account: acct,
		Tokens: domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshOpaque,
			TokenType:    "Bearer",
			ExpiresIn:    s.AccessTTL,
		},
	}, nil
}

func (s *CredentialService) signAccess(acct domain.Account) (string, error) {
	claims := jwtx.NewAccessClaims(
		acct.PhoneNumber, // subject
		acct.ID,
		string(acct.Role),
		s.AccessTTL,
		s.Issuer,
		time.Now(),
	)
	return s.Signer.Sign(claims)
}
