package http

import (
	"encoding/json"
	"net/http"

	"github.com/stockguard/auth/internal/auth/service"
	"github.com/stockguard/auth/pkg/httpx"
	"github.com/stockguard/auth/pkg/slogx"
)

// CredentialsHandler serves registration, password login, and the
// account-holder operations that sit behind an access token.
type CredentialsHandler struct {
	Credentials *service.CredentialService
}

// HandleRegister handles POST /v1/auth/register.
func (h *CredentialsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.PhoneNumber == "" || req.Password == "" {
		writeBadRequest(w, "phone_number and password are required")
		return
	}

	id, err := h.Credentials.Register(ctx, service.RegisterParams{
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		FullName:    req.FullName,
		DeviceID:    req.DeviceID,
		DeviceToken: req.DeviceToken,
	})
	if err != nil {
		log.Warn("registration rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, toIdentityResponse(id))
}

// HandleLogin handles POST /v1/auth/login.
func (h *CredentialsHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.PhoneNumber == "" || req.Password == "" {
		writeBadRequest(w, "phone_number and password are required")
		return
	}

	id, err := h.Credentials.Login(ctx, service.LoginParams{
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		DeviceID:    req.DeviceID,
		DeviceToken: req.DeviceToken,
	})
	if err != nil {
		log.Warn("login rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toIdentityResponse(id))
}

// HandleGetProfile handles GET /v1/account.
func (h *CredentialsHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	acct, err := h.Credentials.GetAccount(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(acct))
}

// HandleUpdateProfile handles PATCH /v1/account.
func (h *CredentialsHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	acct, err := h.Credentials.UpdateProfile(ctx, httpx.UserIDFromCtx(ctx),
		req.FullName, req.ProfileImageURL, req.DeviceToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(acct))
}

// HandleChangePassword handles POST /v1/account/password.
func (h *CredentialsHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		writeBadRequest(w, "old_password and new_password are required")
		return
	}

	userID := httpx.UserIDFromCtx(ctx)
	if err := h.Credentials.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		log.Warn("password change rejected", "user_id", userID, "err", err)
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
