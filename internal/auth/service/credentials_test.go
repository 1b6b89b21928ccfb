package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockguard/auth/internal/auth/domain"
)

func register(t *testing.T, creds *CredentialService, phone, password string) domain.Identity {
	t.Helper()
	id, err := creds.Register(context.Background(), RegisterParams{
		PhoneNumber: phone,
		Password:    password,
		FullName:    "Test User",
		DeviceID:    "device-1",
	})
	require.NoError(t, err)
	return id
}

func TestRegister(t *testing.T) {
	creds, _, st := newTestServices(t)
	ctx := context.Background()

	id := register(t, creds, "+989121234567", "s3cret-pass")
	require.NotEmpty(t, id.Tokens.AccessToken)
	require.NotEmpty(t, id.Tokens.RefreshToken)
	require.Equal(t, "Bearer", id.Tokens.TokenType)
	require.Equal(t, domain.RoleUser, id.Account.Role)
	require.True(t, id.Account.Enabled)
	require.False(t, id.Account.Locked)

	stored, err := st.Accounts().GetAccountByPhone(ctx, "+989121234567")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", stored.PasswordHash)

	t.Run("duplicate phone number rejected", func(t *testing.T) {
		_, err := creds.Register(ctx, RegisterParams{
			PhoneNumber: "+989121234567",
			Password:    "other-pass",
		})
		require.ErrorIs(t, err, ErrDuplicatePhone)
	})
}

func TestLogin(t *testing.T) {
	creds, _, _ := newTestServices(t)
	ctx := context.Background()

	register(t, creds, "+989121234567", "s3cret-pass")

	t.Run("correct password succeeds", func(t *testing.T) {
		id, err := creds.Login(ctx, LoginParams{
			PhoneNumber: "+989121234567",
			Password:    "s3cret-pass",
			DeviceID:    "device-1",
		})
		require.NoError(t, err)
		require.NotEmpty(t, id.Tokens.AccessToken)
		require.NotNil(t, id.Account.LastLogin)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		_, err := creds.Login(ctx, LoginParams{
			PhoneNumber: "+989121234567",
			Password:    "wrong",
		})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown phone reports invalid credentials", func(t *testing.T) {
		_, err := creds.Login(ctx, LoginParams{
			PhoneNumber: "+989999999999",
			Password:    "s3cret-pass",
		})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginLockout(t *testing.T) {
	creds, _, st := newTestServices(t)
	ctx := context.Background()

	register(t, creds, "+989121234567", "s3cret-pass")

	for i := 0; i < LockoutThreshold; i++ {
		_, err := creds.Login(ctx, LoginParams{
			PhoneNumber: "+989121234567",
			Password:    "wrong",
		})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	acct, err := st.Accounts().GetAccountByPhone(ctx, "+989121234567")
	require.NoError(t, err)
	require.True(t, acct.Locked)
	require.NotNil(t, acct.LockedAt)
	require.Equal(t, LockoutThreshold, acct.FailedLoginAttempts)

	t.Run("correct password rejected while locked", func(t *testing.T) {
		_, err := creds.Login(ctx, LoginParams{
			PhoneNumber: "+989121234567",
			Password:    "s3cret-pass",
		})
		require.ErrorIs(t, err, ErrAccountLocked)
	})

	t.Run("unlock restores access", func(t *testing.T) {
		require.NoError(t, creds.Unlock(ctx, acct.ID))

		id, err := creds.Login(ctx, LoginParams{
			PhoneNumber: "+989121234567",
			Password:    "s3cret-pass",
		})
		require.NoError(t, err)
		require.Equal(t, 0, id.Account.FailedLoginAttempts)
	})
}

func TestLoginResetsAttemptsOnSuccess(t *testing.T) {
	creds, _, st := newTestServices(t)
	ctx := context.Background()

	register(t, creds, "+989121234567", "s3cret-pass")

	// A run of failures short of the threshold must not lock.
	for i := 0; i < LockoutThreshold-1; i++ {
		_, err := creds.Login(ctx, LoginParams{
			PhoneNumber: "+989121234567",
			Password:    "wrong",
		})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	id, err := creds.Login(ctx, LoginParams{
		PhoneNumber: "+989121234567",
		Password:    "s3cret-pass",
	})
	require.NoError(t, err)
	require.Equal(t, 0, id.Account.FailedLoginAttempts)

	acct, err := st.Accounts().GetAccountByID(ctx, id.Account.ID)
	require.NoError(t, err)
	require.False(t, acct.Locked)
	require.Equal(t, 0, acct.FailedLoginAttempts)
}

func TestLoginDisabledAccount(t *testing.T) {
	creds, _, _ := newTestServices(t)
	ctx := context.Background()

	id := register(t, creds, "+989121234567", "s3cret-pass")
	require.NoError(t, creds.SetEnabled(ctx, id.Account.ID, false))

	_, err := creds.Login(ctx, LoginParams{
		PhoneNumber: "+989121234567",
		Password:    "s3cret-pass",
	})
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLockoutRevokesSessions(t *testing.T) {
	creds, sessions, _ := newTestServices(t)
	ctx := context.Background()

	id := register(t, creds, "+989121234567", "s3cret-pass")

	for i := 0; i < LockoutThreshold; i++ {
		_, err := creds.Login(ctx, LoginParams{
			PhoneNumber: "+989121234567",
			Password:    "wrong",
		})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := sessions.Refresh(ctx, id.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestChangePassword(t *testing.T) {
	creds, sessions, _ := newTestServices(t)
	ctx := context.Background()

	id := register(t, creds, "+989121234567", "old-pass")

	t.Run("wrong old password rejected", func(t *testing.T) {
		err := creds.ChangePassword(ctx, id.Account.ID, "not-it", "new-pass")
		require.ErrorIs(t, err, ErrWrongOldPassword)
	})

	require.NoError(t, creds.ChangePassword(ctx, id.Account.ID, "old-pass", "new-pass"))

	t.Run("old password no longer works", func(t *testing.T) {
		_, err := creds.Login(ctx, LoginParams{
			PhoneNumber: "+989121234567",
			Password:    "old-pass",
		})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("sessions revoked by the change", func(t *testing.T) {
		_, err := sessions.Refresh(ctx, id.Tokens.RefreshToken)
		require.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("new password works", func(t *testing.T) {
		_, err := creds.Login(ctx, LoginParams{
			PhoneNumber: "+989121234567",
			Password:    "new-pass",
		})
		require.NoError(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	creds, _, _ := newTestServices(t)
	ctx := context.Background()

	id := register(t, creds, "+989121234567", "s3cret-pass")

	updated, err := creds.UpdateProfile(ctx, id.Account.ID, "New Name", "https://cdn.example/p.png", "")
	require.NoError(t, err)
	require.Equal(t, "New Name", updated.FullName)
	require.Equal(t, "https://cdn.example/p.png", updated.ProfileImageURL)

	t.Run("unknown account", func(t *testing.T) {
		_, err := creds.UpdateProfile(ctx, "missing", "x", "", "")
		require.ErrorIs(t, err, ErrAccountNotFound)
	})
}
