package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/stockguard/auth/internal/auth/service"
	"github.com/stockguard/auth/pkg/httpx"
	"github.com/stockguard/auth/pkg/slogx"
)

// AdminHandler serves the operator endpoints. Routing guarantees callers
// carry the ADMIN role before any of these run.
type AdminHandler struct {
	Admin *service.AdminService
}

// HandleList handles GET /v1/admin/accounts?limit=&offset=.
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.Admin.ListAccounts(ctx, limit, offset)
	if err != nil {
		slogx.FromContext(ctx).Error("account listing failed", "err", err)
		writeServerError(w)
		return
	}

	out := accountListResponse{
		Accounts: make([]accountResponse, 0, len(page.Accounts)),
		Total:    page.Total,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	for _, a := range page.Accounts {
		out.Accounts = append(out.Accounts, toAccountResponse(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleUnlock handles POST /v1/admin/accounts/{id}/unlock.
func (h *AdminHandler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := r.PathValue("id")

	if err := h.Admin.Unlock(ctx, accountID); err != nil {
		writeServiceError(w, err)
		return
	}
	slogx.FromContext(ctx).Info("account unlocked",
		"account_id", accountID, "by", httpx.UserIDFromCtx(ctx))
	w.WriteHeader(http.StatusNoContent)
}

// HandleEnable handles POST /v1/admin/accounts/{id}/enable.
func (h *AdminHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

// HandleDisable handles POST /v1/admin/accounts/{id}/disable.
func (h *AdminHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *AdminHandler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	ctx := r.Context()
	accountID := r.PathValue("id")

	if err := h.Admin.SetEnabled(ctx, accountID, enabled); err != nil {
		writeServiceError(w, err)
		return
	}
	slogx.FromContext(ctx).Info("account enabled state changed",
		"account_id", accountID, "enabled", enabled, "by", httpx.UserIDFromCtx(ctx))
	w.WriteHeader(http.StatusNoContent)
}

// HandleResetPassword handles POST /v1/admin/accounts/{id}/reset-password.
func (h *AdminHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := r.PathValue("id")

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.NewPassword == "" {
		writeBadRequest(w, "new_password is required")
		return
	}

	if err := h.Admin.ResetPassword(ctx, accountID, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	slogx.FromContext(ctx).Info("account password reset",
		"account_id", accountID, "by", httpx.UserIDFromCtx(ctx))
	w.WriteHeader(http.StatusNoContent)
}
