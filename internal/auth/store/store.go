package store

import (
	"context"
	"errors"
	"time"

	"github.com/stockguard/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrChallengeExpired and ErrCodeMismatch are returned by the OTP
	// challenge store's atomic consume operation.
	ErrChallengeExpired = errors.New("store: challenge expired")
	ErrCodeMismatch     = errors.New("store: code mismatch")
)

// Store is the root data access interface for the relational store of record.
// Concrete drivers (sqlite, postgres) implement this. It exposes
// sub-repositories to keep concerns tidy and testable.
type Store interface {
	Accounts() Accounts
	RefreshSessions() RefreshSessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh
	// rotation, lockout increments). The caller MUST call Commit() or
	// Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByPhone is used during password login and OTP dispatch.
	GetAccountByPhone(ctx context.Context, phone string) (domain.Account, error)

	// PhoneExists reports whether a phone number is already registered.
	PhoneExists(ctx context.Context, phone string) (bool, error)

	// CreateAccount inserts a new account (id is provided by the app via
	// ULID). Returns ErrAlreadyExists on a phone-number collision.
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdateAccount writes every mutable field and bumps updated_at. It is
	// the write half of every read-modify-write on an account.
	UpdateAccount(ctx context.Context, a domain.Account) error

	// ListAccounts returns accounts ordered by creation date (newest first).
	ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error)

	// CountAccounts returns the total number of accounts.
	CountAccounts(ctx context.Context) (int64, error)
}

type RefreshSessions interface {
	// CreateRefreshSession stores a new refresh session record.
	CreateRefreshSession(ctx context.Context, s domain.RefreshSession) error

	// GetRefreshSessionByHash returns a session by token fingerprint,
	// revoked or not. Callers decide how to surface revocation.
	GetRefreshSessionByHash(ctx context.Context, hash string) (domain.RefreshSession, error)

	// ConsumeRefreshSession flips revoked=1 on a currently-active session.
	// It returns ErrNotFound when no active row matched, which is the
	// single-use gate for rotation: of two concurrent redemptions exactly
	// one observes the active row.
	ConsumeRefreshSession(ctx context.Context, hash string) error

	// RevokeRefreshSession flips revoked=1; no-op if the hash is unknown
	// or already revoked.
	RevokeRefreshSession(ctx context.Context, hash string) error

	// RevokeAccountSessions bulk-revokes every session for an account
	// (password change, lockout).
	RevokeAccountSessions(ctx context.Context, accountID string) error

	// RevokeDeviceSessions revokes the active sessions of one
	// (account, device) pair. Used for rotation-on-issue.
	RevokeDeviceSessions(ctx context.Context, accountID, deviceID string) error

	// DeleteRefreshSession removes a session row outright (expired-on-read).
	DeleteRefreshSession(ctx context.Context, id string) error

	// DeleteExpiredRefreshSessions is periodic housekeeping.
	DeleteExpiredRefreshSessions(ctx context.Context) error
}

// OtpChallenges is the ephemeral challenge store, keyed by ceremony ID. It
// lives outside the relational Store: challenges are bounded-lifetime values
// with store-enforced TTLs, not durable rows.
type OtpChallenges interface {
	// PutChallenge stores a challenge under the ceremony ID, replacing any
	// previous challenge for the ceremony. The record is retained for the
	// given duration, which must exceed the challenge deadline so a late
	// submission is distinguishable from a missing ceremony.
	PutChallenge(ctx context.Context, ceremonyID string, ch domain.OtpChallenge, retention time.Duration) error

	// GetChallenge returns the challenge for a ceremony, or ErrNotFound.
	GetChallenge(ctx context.Context, ceremonyID string) (domain.OtpChallenge, error)

	// ConsumeChallenge atomically compares providedHash against the stored
	// challenge and clears it on match. A stale code can never be accepted
	// twice: the read and the conditional clear happen in one step.
	//
	// Returns the cleared challenge on match; ErrNotFound when no challenge
	// exists; ErrChallengeExpired when past the deadline (the challenge is
	// cleared so the next dispatch issues a fresh code); ErrCodeMismatch on
	// a wrong code (the challenge is left intact).
	ConsumeChallenge(ctx context.Context, ceremonyID string, providedHash string) (domain.OtpChallenge, error)

	// DeleteChallenge clears a ceremony's challenge; no-op if absent.
	DeleteChallenge(ctx context.Context, ceremonyID string) error
}
