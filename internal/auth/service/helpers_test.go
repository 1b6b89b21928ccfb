package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	redisdriver "github.com/stockguard/auth/internal/auth/store/drivers/redis"
	"github.com/stockguard/auth/internal/auth/store/drivers/sqlite"
	"github.com/stockguard/auth/pkg/cryptox"
	"github.com/stockguard/auth/pkg/jwtx"
)

var pepperOnce sync.Once

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	pepperOnce.Do(func() {
		dir, err := filepath.Abs(t.TempDir())
		require.NoError(t, err)
		cryptox.SetPepperPath(filepath.Join(dir, "pepper"))
	})

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSigner(t *testing.T) jwtx.Signer {
	t.Helper()
	signer, err := jwtx.NewSignerHS256([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return signer
}

func newTestServices(t *testing.T) (*CredentialService, *SessionService, *sqlite.Store) {
	t.Helper()

	st := newTestStore(t)
	signer := newTestSigner(t)

	sessions := &SessionService{
		Store:      st,
		Signer:     signer,
		Issuer:     "test-issuer",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
	creds := &CredentialService{
		Store:     st,
		Sessions:  sessions,
		Signer:    signer,
		Issuer:    "test-issuer",
		AccessTTL: time.Minute,
	}
	return creds, sessions, st
}

func newTestChallengeStore(t *testing.T) (*redisdriver.ChallengeStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return redisdriver.NewChallengeStore(rdb), mr
}

// recordingSender captures outgoing messages instead of delivering them.
type recordingSender struct {
	mu       sync.Mutex
	messages []sentMessage
	fail     error
}

type sentMessage struct {
	To   string
	Body string
}

func (s *recordingSender) Send(_ context.Context, to, body string) error {
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, sentMessage{To: to, Body: body})
	return nil
}

func (s *recordingSender) last(t *testing.T) sentMessage {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.messages)
	return s.messages[len(s.messages)-1]
}
