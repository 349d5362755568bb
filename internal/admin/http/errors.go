package http

import (
	"errors"
	"net/http"

	"github.com/labourhub/adminauth/pkg/httpx"
	"github.com/labourhub/adminauth/pkg/slogx"

	"github.com/labourhub/adminauth/internal/admin/service"
)

// writeServiceError maps service-layer errors onto the wire taxonomy. The
// credential and OTP failures deliberately share generic messages so
// responses never confirm account existence or say which check failed.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var locked *service.AccountLockedError
	if errors.As(err, &locked) {
		httpx.WriteError(w, http.StatusLocked, "account_locked", locked.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, service.ErrAccountLocked):
		httpx.WriteError(w, http.StatusLocked, "account_locked", "Account is temporarily locked")
	case errors.Is(err, service.ErrAccountInactive):
		httpx.WriteError(w, http.StatusForbidden, "account_inactive", "Account has been deactivated")
	case errors.Is(err, service.ErrInvalidOTP):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_otp", "Invalid or expired verification code")
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenMismatch):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_refresh_token", "Invalid or expired refresh token")
	case errors.Is(err, service.ErrPermissionDenied):
		httpx.WriteError(w, http.StatusForbidden, "permission_denied", "Insufficient permissions for this operation")
	case errors.Is(err, service.ErrDuplicateIdentity):
		httpx.WriteError(w, http.StatusConflict, "duplicate_identity", "Email or phone already in use")
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, service.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, service.ErrPasswordReuse):
		httpx.WriteError(w, http.StatusBadRequest, "password_reuse", "New password must differ from recently used passwords")
	case errors.Is(err, service.ErrOTPDelivery):
		httpx.WriteError(w, http.StatusBadGateway, "otp_delivery_failed", "Could not deliver the verification code, please retry")
	default:
		slogx.FromContext(r.Context()).Error("unhandled service error", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}
