package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stockguard/auth/internal/auth/service"
	"github.com/stockguard/auth/internal/auth/store"
	"github.com/stockguard/auth/pkg/httpx"
	"github.com/stockguard/auth/pkg/idx"
	"github.com/stockguard/auth/pkg/slogx"
)

// OtpHandler runs the SMS login ceremony over HTTP: a send request starts a
// ceremony and texts a code, a verify request redeems the code for tokens.
type OtpHandler struct {
	Otp         *service.OtpService
	Credentials *service.CredentialService
}

// HandleSend handles POST /v1/auth/otp/send.
//
// A request may carry the ceremony_id from an earlier send; re-requests
// within the code's lifetime then return AWAITING_INPUT without another SMS.
// Omitting it starts a fresh ceremony.
//
// To keep registered phone numbers unenumerable, an unknown number gets the
// same shaped response as a known one; no SMS goes out and the returned
// ceremony can never verify.
func (h *OtpHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.PhoneNumber == "" {
		writeBadRequest(w, "phone_number is required")
		return
	}

	ceremonyID := req.CeremonyID
	if ceremonyID == "" {
		ceremonyID = idx.New().String()
	} else if _, err := idx.Parse(ceremonyID); err != nil {
		writeBadRequest(w, "ceremony_id is not valid")
		return
	}

	acct, err := h.Credentials.Store.Accounts().GetAccountByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("otp requested for unknown number")
			httpx.WriteJSON(w, http.StatusOK, otpSendResponse{
				CeremonyID:  ceremonyID,
				State:       string(service.OtpStateSent),
				MaskedPhone: service.MaskPhone(req.PhoneNumber),
			})
			return
		}
		log.Error("otp account lookup failed", "err", err)
		writeServerError(w)
		return
	}

	if acct.Locked {
		writeServiceError(w, service.ErrAccountLocked)
		return
	}
	if !acct.Enabled {
		writeServiceError(w, service.ErrAccountDisabled)
		return
	}

	res, err := h.Otp.Dispatch(ctx, ceremonyID, acct.ID, acct.PhoneNumber)
	if err != nil {
		log.Error("otp dispatch failed", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, otpSendResponse{
		CeremonyID:  ceremonyID,
		State:       string(res.State),
		MaskedPhone: res.MaskedPhone,
		ExpiresAt:   res.ExpiresAt,
	})
}

// HandleVerify handles POST /v1/auth/otp/verify.
func (h *OtpHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.CeremonyID == "" || req.Code == "" {
		writeBadRequest(w, "ceremony_id and code are required")
		return
	}

	accountID, err := h.Otp.Verify(ctx, req.CeremonyID, req.Code)
	if err != nil {
		log.Warn("otp verification rejected", "err", err)
		writeServiceError(w, err)
		return
	}

	id, err := h.Credentials.CompleteOtpLogin(ctx, accountID, req.DeviceID, req.DeviceToken)
	if err != nil {
		log.Warn("otp login rejected", "account_id", accountID, "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toIdentityResponse(id))
}
