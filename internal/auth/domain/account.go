package domain

import "time"

// Role is the coarse authorisation level carried in access-token claims.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Account is the stored user record, including credential and lockout state.
//
// Locked and Enabled are independent axes: an account can be disabled while
// locked, and unlocking does not re-enable it.
type Account struct {
	ID                  string
	PhoneNumber         string // unique
	PasswordHash        string // argon2id encoded
	FullName            string
	Role                Role
	Enabled             bool
	Locked              bool
	FailedLoginAttempts int
	ProfileImageURL     string
	DeviceID            string
	DeviceToken         string // push notification token
	LockedAt            *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
