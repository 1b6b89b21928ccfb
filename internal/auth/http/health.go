package http

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockguard/auth/internal/auth/store"
	"github.com/stockguard/auth/pkg/httpx"
)

// LivezHandler always reports ok while the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler reports ready only when both backing stores answer.
func ReadyzHandler(startTime time.Time, version string, st store.Store, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := st.Ping(ctx); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status:  "database unavailable",
				Uptime:  time.Since(startTime).String(),
				Version: version,
			})
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
					Status:  "challenge store unavailable",
					Uptime:  time.Since(startTime).String(),
					Version: version,
				})
				return
			}
		}

		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
