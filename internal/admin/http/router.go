package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labourhub/adminauth/pkg/httpx"
	"github.com/labourhub/adminauth/pkg/slogx"

	"github.com/labourhub/adminauth/internal/admin/domain"
	"github.com/labourhub/adminauth/internal/admin/service"
	"github.com/labourhub/adminauth/internal/admin/store"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	AuthService    *service.AuthService
	SessionService *service.SessionService
	ProfileService *service.ProfileService
	AdminService   *service.AdminService
	AuditService   *service.AuditService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProfile()
	r.registerAdmins()
	r.registerLogs()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService: r.AuthService,
		RefreshTTL:  r.SessionService.RefreshTTL,
	}

	// POST /login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /admin/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /send-otp - strictest rate limit (each request sends a message)
	r.Mux.Handle("POST /admin/auth/send-otp",
		httpx.Chain(http.HandlerFunc(h.HandleSendOTP),
			httpx.RateLimitByIP(httpx.OTPLimit),
		),
	)

	// POST /verify-otp - strict rate limit (prevent brute force of codes)
	r.Mux.Handle("POST /admin/auth/verify-otp",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyOTP),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - moderate rate limit
	r.Mux.Handle("POST /admin/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - authenticated
	r.Mux.Handle("POST /admin/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			AuthGate(r.SessionService),
			httpx.RateLimitByAdmin(httpx.LenientLimit),
		),
	)

	// GET /profile - authenticated
	r.Mux.Handle("GET /admin/auth/profile",
		httpx.Chain(http.HandlerFunc(h.HandleGetProfile),
			AuthGate(r.SessionService),
			httpx.RateLimitByAdmin(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{ProfileService: r.ProfileService}

	// PUT /profile - OTP issuance on the first call, so the strictest limit
	r.Mux.Handle("PUT /admin/auth/profile",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile),
			AuthGate(r.SessionService),
			httpx.RateLimitByAdmin(httpx.OTPLimit),
		),
	)

	r.Mux.Handle("PUT /admin/auth/change-password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			AuthGate(r.SessionService),
			httpx.RateLimitByAdmin(httpx.OTPLimit),
		),
	)
}

func (r *Router) registerAdmins() {
	h := &AdminsHandler{AdminService: r.AdminService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			AuthGate(r.SessionService),
			RequirePermission(domain.PermManageAdmins),
			httpx.RateLimitByAdmin(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /admin/auth/admins", secured(h.HandleCreate))
	r.Mux.Handle("PUT /admin/auth/admins/{id}/active", secured(h.HandleSetActive))
	r.Mux.Handle("PUT /admin/auth/admins/{id}/permissions", secured(h.HandleUpdatePermissions))
}

func (r *Router) registerLogs() {
	h := &LogsHandler{
		AuditService: r.AuditService,
		AuthService:  r.AuthService,
	}

	// Log reads require the audit permission; moderate limits since list
	// views poll.
	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			AuthGate(r.SessionService),
			RequirePermission(domain.PermViewAuditLogs),
			httpx.RateLimitByAdmin(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /admin/logs", secured(h.HandleList))
	r.Mux.Handle("GET /admin/logs/recent", secured(h.HandleRecent))
	r.Mux.Handle("GET /admin/logs/security", secured(h.HandleSecurity))
	r.Mux.Handle("GET /admin/logs/summary", secured(h.HandleSummary))
	r.Mux.Handle("GET /admin/logs/export", secured(h.HandleExport))

	// POST /force-logout-all - top role only, strict limit
	r.Mux.Handle("POST /admin/logs/force-logout-all",
		httpx.Chain(http.HandlerFunc(h.HandleForceLogoutAll),
			AuthGate(r.SessionService),
			RequireRole(domain.RoleSuperAdmin),
			httpx.RateLimitByAdmin(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient limits (monitoring systems poll)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
