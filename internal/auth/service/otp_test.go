package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

func codeFromBody(t *testing.T, body string) string {
	t.Helper()
	m := codeRe.FindStringSubmatch(body)
	require.Len(t, m, 2, "sms body should carry a 6 digit code: %q", body)
	return m[1]
}

func newOtpService(t *testing.T) (*OtpService, *recordingSender) {
	t.Helper()
	challenges, _ := newTestChallengeStore(t)
	sender := &recordingSender{}
	return &OtpService{Challenges: challenges, Sender: sender}, sender
}

func TestMaskPhone(t *testing.T) {
	t.Parallel()

	require.Equal(t, "+98*****67", MaskPhone("+989121234567"))
	require.Equal(t, "091*****21", MaskPhone("09121234521"))
	require.Equal(t, "12345", MaskPhone("12345"))
	require.Equal(t, "123456", MaskPhone("123456"))
	require.Equal(t, "", MaskPhone(""))
}

func TestDispatchAndVerify(t *testing.T) {
	svc, sender := newOtpService(t)
	ctx := context.Background()

	res, err := svc.Dispatch(ctx, "ceremony-1", "acct-1", "+989121234567")
	require.NoError(t, err)
	require.Equal(t, OtpStateSent, res.State)
	require.Equal(t, "+98*****67", res.MaskedPhone)
	require.WithinDuration(t, time.Now().Add(DefaultOtpTTL), res.ExpiresAt, 5*time.Second)

	msg := sender.last(t)
	require.Equal(t, "+989121234567", msg.To)
	code := codeFromBody(t, msg.Body)

	accountID, err := svc.Verify(ctx, "ceremony-1", code)
	require.NoError(t, err)
	require.Equal(t, "acct-1", accountID)

	t.Run("a consumed code cannot be replayed", func(t *testing.T) {
		_, err := svc.Verify(ctx, "ceremony-1", code)
		require.ErrorIs(t, err, ErrNoActiveChallenge)
	})
}

func TestDispatchDoesNotResendWhileOutstanding(t *testing.T) {
	svc, sender := newOtpService(t)
	ctx := context.Background()

	res, err := svc.Dispatch(ctx, "ceremony-1", "acct-1", "+989121234567")
	require.NoError(t, err)
	require.Equal(t, OtpStateSent, res.State)

	res, err = svc.Dispatch(ctx, "ceremony-1", "acct-1", "+989121234567")
	require.NoError(t, err)
	require.Equal(t, OtpStateAwaitingInput, res.State)

	sender.mu.Lock()
	count := len(sender.messages)
	sender.mu.Unlock()
	require.Equal(t, 1, count)
}

func TestDispatchAfterExpiryIssuesFreshCode(t *testing.T) {
	challenges, _ := newTestChallengeStore(t)
	sender := &recordingSender{}
	svc := &OtpService{Challenges: challenges, Sender: sender, TTL: 50 * time.Millisecond}
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, "ceremony-1", "acct-1", "+989121234567")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	res, err := svc.Dispatch(ctx, "ceremony-1", "acct-1", "+989121234567")
	require.NoError(t, err)
	require.Equal(t, OtpStateSent, res.State)

	second := codeFromBody(t, sender.last(t).Body)
	_, err = svc.Verify(ctx, "ceremony-1", second)
	require.NoError(t, err)
}

func TestVerifyAfterDeadlineFails(t *testing.T) {
	challenges, _ := newTestChallengeStore(t)
	sender := &recordingSender{}
	svc := &OtpService{Challenges: challenges, Sender: sender, TTL: 50 * time.Millisecond}
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, "ceremony-1", "acct-1", "+989121234567")
	require.NoError(t, err)
	code := codeFromBody(t, sender.last(t).Body)

	time.Sleep(100 * time.Millisecond)

	// The record outlives its deadline, so a late code is rejected as
	// expired, not as an unknown ceremony.
	_, err = svc.Verify(ctx, "ceremony-1", code)
	require.ErrorIs(t, err, ErrChallengeExpired)

	t.Run("the expired challenge is cleared", func(t *testing.T) {
		_, err := svc.Verify(ctx, "ceremony-1", code)
		require.ErrorIs(t, err, ErrNoActiveChallenge)
	})

	t.Run("the next dispatch sends a different code", func(t *testing.T) {
		res, err := svc.Dispatch(ctx, "ceremony-1", "acct-1", "+989121234567")
		require.NoError(t, err)
		require.Equal(t, OtpStateSent, res.State)

		fresh := codeFromBody(t, sender.last(t).Body)
		_, err = svc.Verify(ctx, "ceremony-1", fresh)
		require.NoError(t, err)
	})
}

func TestVerifyWrongCodeLeavesChallenge(t *testing.T) {
	svc, sender := newOtpService(t)
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, "ceremony-1", "acct-1", "+989121234567")
	require.NoError(t, err)
	code := codeFromBody(t, sender.last(t).Body)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err = svc.Verify(ctx, "ceremony-1", wrong)
	require.ErrorIs(t, err, ErrWrongCode)

	// The challenge survives the miss; the right code still redeems.
	accountID, err := svc.Verify(ctx, "ceremony-1", code)
	require.NoError(t, err)
	require.Equal(t, "acct-1", accountID)
}

func TestVerifyWithoutDispatch(t *testing.T) {
	svc, _ := newOtpService(t)

	_, err := svc.Verify(context.Background(), "ceremony-unknown", "123456")
	require.ErrorIs(t, err, ErrNoActiveChallenge)
}

func TestDispatchRequiresPhone(t *testing.T) {
	svc, _ := newOtpService(t)

	_, err := svc.Dispatch(context.Background(), "ceremony-1", "acct-1", "")
	require.ErrorIs(t, err, ErrNoPhoneOnFile)
}

func TestDispatchDeliveryFailureStoresNothing(t *testing.T) {
	challenges, _ := newTestChallengeStore(t)
	sender := &recordingSender{fail: context.DeadlineExceeded}
	svc := &OtpService{Challenges: challenges, Sender: sender}
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, "ceremony-1", "acct-1", "+989121234567")
	require.ErrorIs(t, err, ErrSMSDelivery)

	// No challenge was committed, so verification has nothing to check.
	_, err = svc.Verify(ctx, "ceremony-1", "123456")
	require.ErrorIs(t, err, ErrNoActiveChallenge)
}

func TestCancel(t *testing.T) {
	svc, sender := newOtpService(t)
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, "ceremony-1", "acct-1", "+989121234567")
	require.NoError(t, err)
	code := codeFromBody(t, sender.last(t).Body)

	require.NoError(t, svc.Cancel(ctx, "ceremony-1"))

	_, err = svc.Verify(ctx, "ceremony-1", code)
	require.ErrorIs(t, err, ErrNoActiveChallenge)
}
