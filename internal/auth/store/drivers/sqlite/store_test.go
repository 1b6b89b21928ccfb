package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockguard/auth/internal/auth/domain"
	"github.com/stockguard/auth/internal/auth/store"
	"github.com/stockguard/auth/pkg/idx"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func newAccount(phone string) domain.Account {
	return domain.Account{
		ID:           idx.New().String(),
		PhoneNumber:  phone,
		PasswordHash: "argon2id$dummy",
		FullName:     "Test User",
		Role:         domain.RoleUser,
		Enabled:      true,
	}
}

func TestAccountsCRUD(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	acct := newAccount("+989121234567")
	require.NoError(t, st.Accounts().CreateAccount(ctx, acct))

	t.Run("get by id", func(t *testing.T) {
		got, err := st.Accounts().GetAccountByID(ctx, acct.ID)
		require.NoError(t, err)
		require.Equal(t, acct.PhoneNumber, got.PhoneNumber)
		require.Equal(t, domain.RoleUser, got.Role)
		require.True(t, got.Enabled)
		require.False(t, got.Locked)
		require.Nil(t, got.LockedAt)
		require.False(t, got.CreatedAt.IsZero())
	})

	t.Run("get by phone", func(t *testing.T) {
		got, err := st.Accounts().GetAccountByPhone(ctx, acct.PhoneNumber)
		require.NoError(t, err)
		require.Equal(t, acct.ID, got.ID)
	})

	t.Run("phone exists", func(t *testing.T) {
		ok, err := st.Accounts().PhoneExists(ctx, acct.PhoneNumber)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = st.Accounts().PhoneExists(ctx, "+980000000000")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("duplicate phone", func(t *testing.T) {
		err := st.Accounts().CreateAccount(ctx, newAccount(acct.PhoneNumber))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := st.Accounts().GetAccountByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update round-trips optional times", func(t *testing.T) {
		got, err := st.Accounts().GetAccountByID(ctx, acct.ID)
		require.NoError(t, err)

		now := time.Now().UTC().Truncate(time.Second)
		got.Locked = true
		got.LockedAt = &now
		got.FailedLoginAttempts = 5
		require.NoError(t, st.Accounts().UpdateAccount(ctx, got))

		got, err = st.Accounts().GetAccountByID(ctx, acct.ID)
		require.NoError(t, err)
		require.True(t, got.Locked)
		require.NotNil(t, got.LockedAt)
		require.Equal(t, 5, got.FailedLoginAttempts)
	})

	t.Run("update of missing account", func(t *testing.T) {
		ghost := newAccount("+981111111111")
		err := st.Accounts().UpdateAccount(ctx, ghost)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestListAndCountAccounts(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		a := newAccount(fmt.Sprintf("+9891200000%d", i))
		require.NoError(t, st.Accounts().CreateAccount(ctx, a))
	}

	total, err := st.Accounts().CountAccounts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 4, total)

	page, err := st.Accounts().ListAccounts(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, page, 3)

	rest, err := st.Accounts().ListAccounts(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, rest, 1)
}

func newSession(accountID, hash string, expires time.Time) domain.RefreshSession {
	return domain.RefreshSession{
		ID:        idx.New().String(),
		AccountID: accountID,
		DeviceID:  "device-1",
		TokenHash: hash,
		ExpiresAt: expires,
	}
}

func TestRefreshSessionLifecycle(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	acct := newAccount("+989121234567")
	require.NoError(t, st.Accounts().CreateAccount(ctx, acct))

	future := time.Now().UTC().Add(time.Hour)
	sess := newSession(acct.ID, "hash-1", future)
	require.NoError(t, st.RefreshSessions().CreateRefreshSession(ctx, sess))

	t.Run("get by hash", func(t *testing.T) {
		got, err := st.RefreshSessions().GetRefreshSessionByHash(ctx, "hash-1")
		require.NoError(t, err)
		require.Equal(t, sess.ID, got.ID)
		require.False(t, got.Revoked)
	})

	t.Run("duplicate hash", func(t *testing.T) {
		err := st.RefreshSessions().CreateRefreshSession(ctx, newSession(acct.ID, "hash-1", future))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("consume is single use", func(t *testing.T) {
		require.NoError(t, st.RefreshSessions().ConsumeRefreshSession(ctx, "hash-1"))

		got, err := st.RefreshSessions().GetRefreshSessionByHash(ctx, "hash-1")
		require.NoError(t, err)
		require.True(t, got.Revoked)

		err = st.RefreshSessions().ConsumeRefreshSession(ctx, "hash-1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("consume of unknown hash", func(t *testing.T) {
		err := st.RefreshSessions().ConsumeRefreshSession(ctx, "never-stored")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRevokeScopes(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	acct := newAccount("+989121234567")
	other := newAccount("+989121234568")
	require.NoError(t, st.Accounts().CreateAccount(ctx, acct))
	require.NoError(t, st.Accounts().CreateAccount(ctx, other))

	future := time.Now().UTC().Add(time.Hour)

	a1 := newSession(acct.ID, "a1", future)
	a2 := newSession(acct.ID, "a2", future)
	a2.DeviceID = "device-2"
	b1 := newSession(other.ID, "b1", future)
	for _, s := range []domain.RefreshSession{a1, a2, b1} {
		require.NoError(t, st.RefreshSessions().CreateRefreshSession(ctx, s))
	}

	t.Run("revoke by device", func(t *testing.T) {
		require.NoError(t, st.RefreshSessions().RevokeDeviceSessions(ctx, acct.ID, "device-1"))

		got, err := st.RefreshSessions().GetRefreshSessionByHash(ctx, "a1")
		require.NoError(t, err)
		require.True(t, got.Revoked)

		got, err = st.RefreshSessions().GetRefreshSessionByHash(ctx, "a2")
		require.NoError(t, err)
		require.False(t, got.Revoked)
	})

	t.Run("revoke by account leaves others", func(t *testing.T) {
		require.NoError(t, st.RefreshSessions().RevokeAccountSessions(ctx, acct.ID))

		got, err := st.RefreshSessions().GetRefreshSessionByHash(ctx, "a2")
		require.NoError(t, err)
		require.True(t, got.Revoked)

		got, err = st.RefreshSessions().GetRefreshSessionByHash(ctx, "b1")
		require.NoError(t, err)
		require.False(t, got.Revoked)
	})

	t.Run("revoke single is idempotent", func(t *testing.T) {
		require.NoError(t, st.RefreshSessions().RevokeRefreshSession(ctx, "b1"))
		require.NoError(t, st.RefreshSessions().RevokeRefreshSession(ctx, "b1"))
	})
}

func TestDeleteExpiredRefreshSessions(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	acct := newAccount("+989121234567")
	require.NoError(t, st.Accounts().CreateAccount(ctx, acct))

	live := newSession(acct.ID, "live", time.Now().UTC().Add(time.Hour))
	dead := newSession(acct.ID, "dead", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, st.RefreshSessions().CreateRefreshSession(ctx, live))
	require.NoError(t, st.RefreshSessions().CreateRefreshSession(ctx, dead))

	require.NoError(t, st.RefreshSessions().DeleteExpiredRefreshSessions(ctx))

	_, err := st.RefreshSessions().GetRefreshSessionByHash(ctx, "dead")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.RefreshSessions().GetRefreshSessionByHash(ctx, "live")
	require.NoError(t, err)
}

func TestWithTx(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	t.Run("commit on nil", func(t *testing.T) {
		acct := newAccount("+989121234567")
		err := st.WithTx(ctx, func(tx store.Tx) error {
			return tx.Accounts().CreateAccount(ctx, acct)
		})
		require.NoError(t, err)

		_, err = st.Accounts().GetAccountByID(ctx, acct.ID)
		require.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		acct := newAccount("+989129999999")
		boom := errors.New("boom")
		err := st.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Accounts().CreateAccount(ctx, acct); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = st.Accounts().GetAccountByID(ctx, acct.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
