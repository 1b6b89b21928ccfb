package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGatewaySenderSend(t *testing.T) {
	t.Parallel()

	t.Run("confirmed dispatch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "+15551234567", r.Form.Get("receptor"))
			require.Equal(t, "10004", r.Form.Get("sender"))
			require.Contains(t, r.Form.Get("message"), "verification code")

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"return":{"status":200,"message":"ok"}}`))
		}))
		defer srv.Close()

		sender := NewGatewaySender(srv.URL, "api-key", "10004")
		err := sender.Send(context.Background(), "+15551234567", "Your verification code is: 123456")
		require.NoError(t, err)
	})

	t.Run("gateway error status surfaces as delivery failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"return":{"status":418,"message":"insufficient credit"}}`))
		}))
		defer srv.Close()

		sender := NewGatewaySender(srv.URL, "api-key", "10004")
		err := sender.Send(context.Background(), "+15551234567", "hello")
		require.ErrorIs(t, err, ErrDelivery)
	})

	t.Run("http failure surfaces as delivery failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		sender := NewGatewaySender(srv.URL, "api-key", "10004")
		err := sender.Send(context.Background(), "+15551234567", "hello")
		require.ErrorIs(t, err, ErrDelivery)
	})
}
