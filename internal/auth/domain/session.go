package domain

import "time"

// RefreshSession models a stored refresh-token record. The opaque token value
// is never persisted; only its deterministic fingerprint is kept so a leaked
// database does not leak redeemable tokens.
type RefreshSession struct {
	ID        string
	AccountID string
	DeviceID  string
	TokenHash string // base64url SHA-256 fingerprint of the opaque token
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the session is still redeemable at the given instant.
func (s RefreshSession) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
