package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/stockguard/auth/internal/auth/domain"
	"github.com/stockguard/auth/internal/auth/store"
)

type accountsRepo struct {
	q querier
}

const accountColumns = `id, phone_number, password_hash, full_name, role, enabled, locked,
	failed_login_attempts, profile_image_url, device_id, device_token,
	locked_at, last_login, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account
	var role string
	var lockedAt, lastLogin sql.NullTime
	err := row.Scan(
		&a.ID, &a.PhoneNumber, &a.PasswordHash, &a.FullName, &role, &a.Enabled, &a.Locked,
		&a.FailedLoginAttempts, &a.ProfileImageURL, &a.DeviceID, &a.DeviceToken,
		&lockedAt, &lastLogin, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	a.Role = domain.Role(role)
	a.LockedAt = mapNullTimePtr(lockedAt)
	a.LastLogin = mapNullTimePtr(lastLogin)
	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetAccountByPhone(ctx context.Context, phone string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE phone_number = ?`, phone)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) PhoneExists(ctx context.Context, phone string) (bool, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM accounts WHERE phone_number = ?`, phone).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PhoneNumber, a.PasswordHash, a.FullName, string(a.Role), a.Enabled, a.Locked,
		a.FailedLoginAttempts, a.ProfileImageURL, a.DeviceID, a.DeviceToken,
		mapOptionalTime(a.LockedAt), mapOptionalTime(a.LastLogin), now, now,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdateAccount(ctx context.Context, a domain.Account) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET
			phone_number = ?, password_hash = ?, full_name = ?, role = ?,
			enabled = ?, locked = ?, failed_login_attempts = ?,
			profile_image_url = ?, device_id = ?, device_token = ?,
			locked_at = ?, last_login = ?, updated_at = ?
		 WHERE id = ?`,
		a.PhoneNumber, a.PasswordHash, a.FullName, string(a.Role),
		a.Enabled, a.Locked, a.FailedLoginAttempts,
		a.ProfileImageURL, a.DeviceID, a.DeviceToken,
		mapOptionalTime(a.LockedAt), mapOptionalTime(a.LastLogin), time.Now().UTC(),
		a.ID,
	)
	if err != nil {
		return mapConstraint(err)
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

func (r *accountsRepo) ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountsRepo) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM accounts`).Scan(&n)
	return n, err
}
