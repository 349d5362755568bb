package http

import (
	"encoding/json"
	"net/http"

	"github.com/labourhub/adminauth/pkg/httpx"

	"github.com/labourhub/adminauth/internal/admin/service"
)

// ProfileHandler handles the OTP-gated self-service profile endpoints. Both
// endpoints are two-phase: a request without a code stages the change and
// sends one, a request with a code commits.
type ProfileHandler struct {
	ProfileService *service.ProfileService
}

// HandleUpdateProfile handles PUT /admin/auth/profile.
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admin, ok := adminFromCtx(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	meta := clientMeta(r)

	if req.Code == "" {
		ttl, err := h.ProfileService.RequestProfileUpdate(ctx, admin.ID, service.ProfileUpdate{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
		}, meta)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusAccepted, otpPendingResponse{
			RequiresOTP: true,
			ExpiresIn:   int64(ttl.Seconds()),
		})
		return
	}

	updated, err := h.ProfileService.ConfirmProfileUpdate(ctx, admin.ID, req.Code, meta)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAdminResponse(updated))
}

// HandleChangePassword handles PUT /admin/auth/change-password.
func (h *ProfileHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admin, ok := adminFromCtx(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "current_password and new_password are required")
		return
	}

	meta := clientMeta(r)

	if req.Code == "" {
		ttl, err := h.ProfileService.RequestPasswordChange(ctx, admin.ID, req.CurrentPassword, req.NewPassword, meta)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusAccepted, otpPendingResponse{
			RequiresOTP: true,
			ExpiresIn:   int64(ttl.Seconds()),
		})
		return
	}

	if err := h.ProfileService.ConfirmPasswordChange(ctx, admin.ID, req.CurrentPassword, req.NewPassword, req.Code, meta); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}
