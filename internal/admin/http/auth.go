package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labourhub/adminauth/pkg/httpx"
	"github.com/labourhub/adminauth/pkg/slogx"

	"github.com/labourhub/adminauth/internal/admin/service"
)

const refreshCookieName = "admin_refresh_token"

// AuthHandler handles the login, OTP and session lifecycle endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
	RefreshTTL  time.Duration
}

// HandleLogin handles POST /admin/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "email and password are required")
		return
	}

	admin, pair, err := h.AuthService.Login(ctx, req.Email, req.Password, clientMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Admin:  toAdminResponse(admin),
		Tokens: pair,
	})
}

// HandleSendOTP handles POST /admin/auth/send-otp.
func (h *AuthHandler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Identifier == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "identifier is required")
		return
	}

	ttl, err := h.AuthService.SendLoginOTP(ctx, req.Identifier, clientMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, otpPendingResponse{
		RequiresOTP: true,
		ExpiresIn:   int64(ttl.Seconds()),
	})
}

// HandleVerifyOTP handles POST /admin/auth/verify-otp.
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Identifier == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "identifier and code are required")
		return
	}

	admin, pair, err := h.AuthService.VerifyLoginOTP(ctx, req.Identifier, req.Code, clientMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Admin:  toAdminResponse(admin),
		Tokens: pair,
	})
}

// HandleRefresh handles POST /admin/auth/refresh. The refresh token is read
// from the JSON body, falling back to the HTTP-only cookie set at login.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	// Body is optional when the cookie carries the token.
	_ = json.NewDecoder(r.Body).Decode(&req)

	raw := req.RefreshToken
	if raw == "" {
		if c, err := r.Cookie(refreshCookieName); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		writeServiceError(w, r, service.ErrInvalidRefresh)
		return
	}

	_, pair, err := h.AuthService.Refresh(ctx, raw, clientMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleLogout handles POST /admin/auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admin, ok := adminFromCtx(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	if err := h.AuthService.Logout(ctx, admin.ID, clientMeta(r)); err != nil {
		slogx.FromContext(ctx).Error("logout failed", "admin_id", admin.ID, "err", err)
		writeServiceError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// HandleGetProfile handles GET /admin/auth/profile.
func (h *AuthHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAdminResponse(admin))
}

func (h *AuthHandler) refreshTTL() time.Duration {
	if h.RefreshTTL > 0 {
		return h.RefreshTTL
	}
	return 14 * 24 * time.Hour
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/admin/auth",
		MaxAge:   int(h.refreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/admin/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
