package sqlite

import (
	"context"
	"time"

	"github.com/stockguard/auth/internal/auth/domain"
	"github.com/stockguard/auth/internal/auth/store"
)

type refreshSessionsRepo struct {
	q querier
}

const sessionColumns = `id, account_id, device_id, token_hash, expires_at, revoked, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (domain.RefreshSession, error) {
	var s domain.RefreshSession
	err := row.Scan(
		&s.ID, &s.AccountID, &s.DeviceID, &s.TokenHash,
		&s.ExpiresAt, &s.Revoked, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *refreshSessionsRepo) CreateRefreshSession(ctx context.Context, s domain.RefreshSession) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO refresh_sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.AccountID, s.DeviceID, s.TokenHash, s.ExpiresAt, s.Revoked, now, now,
	)
	return mapConstraint(err)
}

func (r *refreshSessionsRepo) GetRefreshSessionByHash(ctx context.Context, hash string) (domain.RefreshSession, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM refresh_sessions WHERE token_hash = ?`, hash)
	s, err := scanSession(row)
	if err != nil {
		return domain.RefreshSession{}, mapNotFound(err)
	}
	return s, nil
}

// ConsumeRefreshSession is the single-use gate for rotation: the UPDATE only
// matches an active row, so of two concurrent redemptions exactly one sees
// RowsAffected == 1.
func (r *refreshSessionsRepo) ConsumeRefreshSession(ctx context.Context, hash string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = 1, updated_at = ?
		 WHERE token_hash = ? AND revoked = 0`, time.Now().UTC(), hash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *refreshSessionsRepo) RevokeRefreshSession(ctx context.Context, hash string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = 1, updated_at = ?
		 WHERE token_hash = ? AND revoked = 0`, time.Now().UTC(), hash)
	return err
}

func (r *refreshSessionsRepo) RevokeAccountSessions(ctx context.Context, accountID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = 1, updated_at = ?
		 WHERE account_id = ? AND revoked = 0`, time.Now().UTC(), accountID)
	return err
}

func (r *refreshSessionsRepo) RevokeDeviceSessions(ctx context.Context, accountID, deviceID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = 1, updated_at = ?
		 WHERE account_id = ? AND device_id = ? AND revoked = 0`,
		time.Now().UTC(), accountID, deviceID)
	return err
}

func (r *refreshSessionsRepo) DeleteRefreshSession(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE id = ?`, id)
	return err
}

func (r *refreshSessionsRepo) DeleteExpiredRefreshSessions(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_sessions WHERE expires_at < ?`, time.Now().UTC())
	return err
}
