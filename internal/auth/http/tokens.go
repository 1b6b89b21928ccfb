package http

import (
	"encoding/json"
	"net/http"

	"github.com/stockguard/auth/internal/auth/service"
	"github.com/stockguard/auth/pkg/httpx"
	"github.com/stockguard/auth/pkg/slogx"
)

// TokensHandler serves refresh-token rotation and revocation.
type TokensHandler struct {
	Sessions *service.SessionService
}

// HandleRefresh handles POST /v1/auth/token/refresh.
func (h *TokensHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		writeBadRequest(w, "refresh_token is required")
		return
	}

	id, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		log.Warn("refresh rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toIdentityResponse(id).Tokens)
}

// HandleRevoke handles POST /v1/auth/token/revoke. Always succeeds for a
// well-formed request; revocation of an unknown token is not an error.
func (h *TokensHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		writeBadRequest(w, "refresh_token is required")
		return
	}

	if err := h.Sessions.Revoke(ctx, req.RefreshToken); err != nil {
		log.Error("revoke failed", "err", err)
		writeServerError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogoutAll handles POST /v1/account/logout-all. Authenticated; kills
// every refresh session the account holds.
func (h *TokensHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if err := h.Sessions.RevokeAll(ctx, userID); err != nil {
		log.Error("logout-all failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
