package domain

import "time"

// OtpChallenge is the transient state of one SMS verification ceremony. It is
// held in a short-TTL key-value store keyed by ceremony ID and is never
// persisted beyond the ceremony's lifetime. The code itself is not stored,
// only its one-way hash.
type OtpChallenge struct {
	AccountID string
	CodeHash  string // hex SHA-256 of the numeric code
	Deadline  time.Time
	SentAt    time.Time
}
