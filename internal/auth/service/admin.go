package service

import (
	"context"
	"log/slog"

	"github.com/stockguard/auth/internal/auth/domain"
	"github.com/stockguard/auth/internal/auth/store"
	"github.com/stockguard/auth/pkg/cryptox"
	"github.com/stockguard/auth/pkg/slogx"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminService groups the operator-facing account management operations.
// Every operation here sits behind the ADMIN role at the HTTP layer.
type AdminService struct {
	Store       store.Store
	Credentials *CredentialService
	Sessions    *SessionService
}

// AccountPage is one page of the account listing plus the total row count.
type AccountPage struct {
	Accounts []domain.Account
	Total    int64
	Limit    int
	Offset   int
}

// ListAccounts returns accounts newest-first with limit/offset pagination.
func (s *AdminService) ListAccounts(ctx context.Context, limit, offset int) (AccountPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.Store.Accounts().ListAccounts(ctx, limit, offset)
	if err != nil {
		return AccountPage{}, err
	}
	total, err := s.Store.Accounts().CountAccounts(ctx)
	if err != nil {
		return AccountPage{}, err
	}

	return AccountPage{
		Accounts: accounts,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

// ResetPassword overwrites an account's password hash without checking the
// old one, then revokes every session the account holds. Operator recovery
// path for users locked out of their own credentials.
func (s *AdminService) ResetPassword(ctx context.Context, accountID, newPassword string) error {
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Credentials.updateAccount(ctx, accountID, func(a *domain.Account) error {
		a.PasswordHash = hash
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.Sessions.RevokeAll(ctx, accountID); err != nil {
		return err
	}

	l.Info("password reset by operator", slog.String("account_id", accountID))
	return nil
}

// Unlock clears an account's lockout state.
func (s *AdminService) Unlock(ctx context.Context, accountID string) error {
	return s.Credentials.Unlock(ctx, accountID)
}

// SetEnabled enables or disables an account. Disabling also revokes the
// account's sessions so existing refresh tokens stop working immediately.
func (s *AdminService) SetEnabled(ctx context.Context, accountID string, enabled bool) error {
	if err := s.Credentials.SetEnabled(ctx, accountID, enabled); err != nil {
		return err
	}
	if !enabled {
		return s.Sessions.RevokeAll(ctx, accountID)
	}
	return nil
}
