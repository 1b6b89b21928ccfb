// Package sms is the boundary to the SMS transport. The auth core only needs
// send-and-confirm semantics; delivery receipts, retries and timeouts are the
// gateway's problem.
package sms

import (
	"context"
	"errors"
	"log/slog"
)

// ErrDelivery is returned when the gateway did not confirm dispatch.
var ErrDelivery = errors.New("sms: delivery failed")

// Sender dispatches a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// LogSender writes messages to the log instead of sending them. For dev and
// test environments.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, to, body string) error {
	s.Logger.Info("sms dispatch (log mode)", "to", to, "body", body)
	return nil
}
