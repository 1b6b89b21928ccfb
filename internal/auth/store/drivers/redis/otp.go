// Package redis implements the ephemeral OTP challenge store on Redis.
// Challenges are short-lived values keyed by ceremony ID. The verify path
// enforces the deadline itself, so callers store records with a retention
// longer than the deadline; Redis expiry only garbage-collects abandoned
// ceremonies, no background sweeper is needed.
package redis

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockguard/auth/internal/auth/domain"
	"github.com/stockguard/auth/internal/auth/store"
)

const challengeKeyPrefix = "otp"

type ChallengeStore struct {
	rdb    *redis.Client
	prefix string
}

func NewChallengeStore(rdb *redis.Client) *ChallengeStore {
	return &ChallengeStore{rdb: rdb, prefix: challengeKeyPrefix}
}

func (s *ChallengeStore) key(ceremonyID string) string {
	return s.prefix + ":" + ceremonyID
}

// challengeRecord is the wire form of a stored challenge.
type challengeRecord struct {
	AccountID string    `json:"account_id"`
	CodeHash  string    `json:"code_hash"`
	Deadline  time.Time `json:"deadline"`
	SentAt    time.Time `json:"sent_at"`
}

func (s *ChallengeStore) PutChallenge(
	ctx context.Context,
	ceremonyID string,
	ch domain.OtpChallenge,
	retention time.Duration,
) error {
	encoded, err := json.Marshal(challengeRecord{
		AccountID: ch.AccountID,
		CodeHash:  ch.CodeHash,
		Deadline:  ch.Deadline,
		SentAt:    ch.SentAt,
	})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(ceremonyID), encoded, retention).Err()
}

func (s *ChallengeStore) GetChallenge(ctx context.Context, ceremonyID string) (domain.OtpChallenge, error) {
	data, err := s.rdb.Get(ctx, s.key(ceremonyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.OtpChallenge{}, store.ErrNotFound
	}
	if err != nil {
		return domain.OtpChallenge{}, err
	}
	return decodeChallenge(data)
}

// ConsumeChallenge runs the read-then-conditionally-clear under WATCH so a
// stale code can never be accepted twice: if another verify clears the key
// between our read and our delete, the transaction fails and we retry against
// the new state.
func (s *ChallengeStore) ConsumeChallenge(
	ctx context.Context,
	ceremonyID string,
	providedHash string,
) (domain.OtpChallenge, error) {
	const maxRetries = 4
	key := s.key(ceremonyID)

	for range maxRetries {
		var matched domain.OtpChallenge

		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return store.ErrNotFound
			}
			if err != nil {
				return err
			}

			ch, err := decodeChallenge(data)
			if err != nil {
				return err
			}

			if time.Now().After(ch.Deadline) {
				// Clear so the next dispatch issues a fresh code.
				if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				}); err != nil {
					return err
				}
				return store.ErrChallengeExpired
			}

			if subtle.ConstantTimeCompare([]byte(ch.CodeHash), []byte(providedHash)) != 1 {
				// Wrong code leaves the unexpired challenge intact.
				return store.ErrCodeMismatch
			}

			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			}); err != nil {
				return err
			}

			matched = ch
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue // key changed under us; retry against the new state
		}
		if err != nil {
			return domain.OtpChallenge{}, err
		}
		return matched, nil
	}

	return domain.OtpChallenge{}, fmt.Errorf("otp challenge %q: too many concurrent consume retries", ceremonyID)
}

func (s *ChallengeStore) DeleteChallenge(ctx context.Context, ceremonyID string) error {
	return s.rdb.Del(ctx, s.key(ceremonyID)).Err()
}

func decodeChallenge(data []byte) (domain.OtpChallenge, error) {
	var rec challengeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.OtpChallenge{}, fmt.Errorf("decode otp challenge: %w", err)
	}
	return domain.OtpChallenge{
		AccountID: rec.AccountID,
		CodeHash:  rec.CodeHash,
		Deadline:  rec.Deadline,
		SentAt:    rec.SentAt,
	}, nil
}
