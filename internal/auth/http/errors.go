package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/stockguard/auth/internal/auth/domain"
	"github.com/stockguard/auth/internal/auth/service"
	"github.com/stockguard/auth/pkg/httpx"
)

func writeError(w http.ResponseWriter, status int, code, description string) {
	httpx.WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}

func writeServerError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "server_error", "Internal server error")
}

func writeBadRequest(w http.ResponseWriter, description string) {
	writeError(w, http.StatusBadRequest, "invalid_request", description)
}

// writeServiceError maps known service errors to their HTTP representations.
// Unknown errors surface as a 500 and the caller is expected to have logged
// them.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Phone number or password is incorrect")
	case errors.Is(err, service.ErrAccountLocked):
		writeError(w, http.StatusForbidden, "account_locked", "Account is locked due to repeated failed login attempts")
	case errors.Is(err, service.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, "account_disabled", "Account is disabled")
	case errors.Is(err, service.ErrDuplicatePhone):
		writeError(w, http.StatusConflict, "duplicate_phone_number", "An account with this phone number already exists")
	case errors.Is(err, service.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account_not_found", "No such account")
	case errors.Is(err, service.ErrWrongOldPassword):
		writeError(w, http.StatusBadRequest, "wrong_old_password", "Old password is incorrect")
	case errors.Is(err, service.ErrTokenNotFound):
		writeError(w, http.StatusUnauthorized, "invalid_grant", "Refresh token is not recognised")
	case errors.Is(err, service.ErrTokenRevoked):
		writeError(w, http.StatusUnauthorized, "invalid_grant", "Refresh token has been revoked")
	case errors.Is(err, service.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "invalid_grant", "Refresh token has expired")
	case errors.Is(err, service.ErrNoPhoneOnFile):
		writeError(w, http.StatusBadRequest, "no_phone_on_file", "Account has no phone number")
	case errors.Is(err, service.ErrNoActiveChallenge):
		writeError(w, http.StatusBadRequest, "no_active_challenge", "No verification code is outstanding for this ceremony")
	case errors.Is(err, service.ErrChallengeExpired):
		writeError(w, http.StatusBadRequest, "challenge_expired", "Verification code has expired, request a new one")
	case errors.Is(err, service.ErrWrongCode):
		writeError(w, http.StatusBadRequest, "wrong_code", "Verification code is incorrect")
	case errors.Is(err, service.ErrSMSDelivery):
		writeError(w, http.StatusBadGateway, "sms_delivery_failed", "Could not deliver the verification code")
	default:
		writeServerError(w)
	}
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:                  a.ID,
		PhoneNumber:         a.PhoneNumber,
		FullName:            a.FullName,
		Role:                string(a.Role),
		Enabled:             a.Enabled,
		Locked:              a.Locked,
		FailedLoginAttempts: a.FailedLoginAttempts,
		ProfileImageURL:     a.ProfileImageURL,
		LastLogin:           a.LastLogin,
		CreatedAt:           a.CreatedAt,
	}
}

func toIdentityResponse(id domain.Identity) identityResponse {
	return identityResponse{
		Account: toAccountResponse(id.Account),
		Tokens: tokenResponse{
			AccessToken:  id.Tokens.AccessToken,
			RefreshToken: id.Tokens.RefreshToken,
			TokenType:    id.Tokens.TokenType,
			ExpiresIn:    int64(id.Tokens.ExpiresIn / time.Second),
		},
	}
}
