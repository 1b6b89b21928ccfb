package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockguard/auth/internal/auth/domain"
	"github.com/stockguard/auth/internal/auth/sms"
	"github.com/stockguard/auth/internal/auth/store"
	"github.com/stockguard/auth/pkg/cryptox"
	"github.com/stockguard/auth/pkg/slogx"
)

const (
	// DefaultOtpCodeLength is the number of digits in a verification code.
	DefaultOtpCodeLength = 6
	// DefaultOtpTTL is how long a dispatched code stays redeemable.
	DefaultOtpTTL = 120 * time.Second
)

var (
	ErrNoPhoneOnFile     = errors.New("no_phone_on_file")
	ErrNoActiveChallenge = errors.New("no_active_challenge")
	ErrChallengeExpired  = errors.New("challenge_expired")
	ErrWrongCode         = errors.New("wrong_code")
	ErrSMSDelivery       = errors.New("sms_delivery_failed")
)

// OtpState describes where a verification ceremony stands after a dispatch
// request.
type OtpState string

const (
	// OtpStateSent means a fresh code was generated and handed to the SMS
	// gateway.
	OtpStateSent OtpState = "SENT"
	// OtpStateAwaitingInput means an unexpired code is already outstanding,
	// so no new SMS was sent.
	OtpStateAwaitingInput OtpState = "AWAITING_INPUT"
)

// OtpResult is what the dispatch operation reports back to the caller.
type OtpResult struct {
	State       OtpState
	MaskedPhone string
	ExpiresAt   time.Time
}

// OtpService runs the SMS challenge-response ceremony: it dispatches hashed
// one-time codes through the challenge store and verifies submissions
// atomically.
type OtpService struct {
	Challenges store.OtpChallenges
	Sender     sms.Sender

	CodeLength int
	TTL        time.Duration
}

func (s *OtpService) codeLength() int {
	if s.CodeLength == 0 {
		return DefaultOtpCodeLength
	}
	return s.CodeLength
}

func (s *OtpService) ttl() time.Duration {
	if s.TTL == 0 {
		return DefaultOtpTTL
	}
	return s.TTL
}

// Dispatch generates a one-time code for the ceremony, texts it to the phone
// number and stores its hash under the ceremony ID. If an unexpired challenge
// already exists for the ceremony, nothing is resent: the caller is told to
// keep waiting for input. The SMS goes out before the challenge is stored, so
// a gateway failure leaves no challenge behind.
func (s *OtpService) Dispatch(ctx context.Context, ceremonyID, accountID, phoneNumber string) (OtpResult, error) {
	l := slogx.FromContext(ctx)

	if phoneNumber == "" {
		return OtpResult{}, ErrNoPhoneOnFile
	}
	masked := MaskPhone(phoneNumber)

	existing, err := s.Challenges.GetChallenge(ctx, ceremonyID)
	switch {
	case err == nil:
		if time.Now().UTC().Before(existing.Deadline) {
			return OtpResult{
				State:       OtpStateAwaitingInput,
				MaskedPhone: masked,
				ExpiresAt:   existing.Deadline,
			}, nil
		}
		// A past-deadline leftover counts as absent.
	case errors.Is(err, store.ErrNotFound):
	default:
		return OtpResult{}, err
	}

	code, err := cryptox.GenerateNumericCode(s.codeLength())
	if err != nil {
		return OtpResult{}, err
	}

	now := time.Now().UTC()
	ch := domain.OtpChallenge{
		AccountID: accountID,
		CodeHash:  cryptox.HashCode(code),
		Deadline:  now.Add(s.ttl()),
		SentAt:    now,
	}

	body := fmt.Sprintf("Your verification code is: %s", code)
	if err := s.Sender.Send(ctx, phoneNumber, body); err != nil {
		l.Error("otp dispatch failed", "err", err, slog.String("phone", masked))
		return OtpResult{}, fmt.Errorf("%w: %v", ErrSMSDelivery, err)
	}

	// The record must outlive its deadline so a late submission reads as
	// expired rather than absent. Eviction at twice the TTL is the backstop.
	if err := s.Challenges.PutChallenge(ctx, ceremonyID, ch, 2*s.ttl()); err != nil {
		return OtpResult{}, err
	}

	l.Info("otp dispatched", slog.String("phone", masked))
	return OtpResult{
		State:       OtpStateSent,
		MaskedPhone: masked,
		ExpiresAt:   ch.Deadline,
	}, nil
}

// Verify checks a submitted code against the ceremony's outstanding
// challenge. On success the challenge is cleared and the owning account ID
// returned; a correct code is accepted at most once. A wrong code leaves the
// challenge outstanding so the holder may retry within the deadline.
func (s *OtpService) Verify(ctx context.Context, ceremonyID, code string) (string, error) {
	ch, err := s.Challenges.ConsumeChallenge(ctx, ceremonyID, cryptox.HashCode(code))
	switch {
	case err == nil:
		return ch.AccountID, nil
	case errors.Is(err, store.ErrNotFound):
		return "", ErrNoActiveChallenge
	case errors.Is(err, store.ErrChallengeExpired):
		return "", ErrChallengeExpired
	case errors.Is(err, store.ErrCodeMismatch):
		return "", ErrWrongCode
	default:
		return "", err
	}
}

// Cancel discards any outstanding challenge for the ceremony.
func (s *OtpService) Cancel(ctx context.Context, ceremonyID string) error {
	return s.Challenges.DeleteChallenge(ctx, ceremonyID)
}

// MaskPhone hides the middle of a phone number for logs and API responses,
// keeping the first three and last two characters. Numbers too short to mask
// meaningfully are returned unchanged.
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return phone
	}
	return phone[:3] + "*****" + phone[len(phone)-2:]
}
