package http

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/labourhub/adminauth/pkg/httpx"
	"github.com/labourhub/adminauth/pkg/jwtx"
	"github.com/labourhub/adminauth/pkg/slogx"

	"github.com/labourhub/adminauth/internal/admin/domain"
	"github.com/labourhub/adminauth/internal/admin/service"
)

type ctxKey string

const ctxKeyAdmin ctxKey = "admin"

func withAdmin(ctx context.Context, admin domain.Admin) context.Context {
	return context.WithValue(ctx, ctxKeyAdmin, admin)
}

// adminFromCtx returns the admin resolved by AuthGate.
func adminFromCtx(ctx context.Context) (domain.Admin, bool) {
	admin, ok := ctx.Value(ctxKeyAdmin).(domain.Admin)
	return admin, ok
}

// AuthGate authenticates a bearer token against the stored session record
// and injects the resolved admin into the request context. Everything short
// of a full match (missing token, bad signature, unknown identity, inactive
// account, superseded session) comes back 401 with the same error code so
// the response never narrows down which check failed.
func AuthGate(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := bearerToken(r)
			if raw == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
				return
			}

			admin, err := sessions.Resolve(ctx, raw)
			if err != nil {
				slogx.FromContext(ctx).Debug("token resolution failed", "err", err)
				httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
				return
			}

			// An authorized request counts as activity.
			if err := sessions.TouchActivity(ctx, admin.ID); err != nil {
				slogx.FromContext(ctx).Warn("failed to touch activity", "admin_id", admin.ID, "err", err)
			}

			ctx = httpx.WithAdmin(ctx, admin.ID)
			ctx = slogx.WithAdminID(ctx, admin.ID)
			ctx = withAdmin(ctx, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole restricts an endpoint to the listed roles.
func RequireRole(roles ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, ok := adminFromCtx(r.Context())
			if !ok || !slices.Contains(roles, admin.Role) {
				httpx.WriteError(w, http.StatusForbidden, "permission_denied", "Insufficient role for this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission restricts an endpoint to admins holding the permission.
// The top role passes regardless of its stored permission set.
func RequirePermission(p domain.Permission) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, ok := adminFromCtx(r.Context())
			if !ok || !admin.HasPermission(p) {
				httpx.WriteError(w, http.StatusForbidden, "permission_denied", "Insufficient permissions for this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// clientMeta extracts the forensic request metadata attached to sessions and
// audit entries.
func clientMeta(r *http.Request) jwtx.ClientMeta {
	return jwtx.ClientMeta{
		IP:        httpx.IPKeyExtractor(r),
		UserAgent: r.UserAgent(),
	}
}
