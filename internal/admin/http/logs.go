package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labourhub/adminauth/pkg/httpx"

	"github.com/labourhub/adminauth/internal/admin/domain"
	"github.com/labourhub/adminauth/internal/admin/service"
)

// LogsHandler exposes the audit trail: filtered queries, the security view,
// summaries, export, and the force-logout panic button.
type LogsHandler struct {
	AuditService *service.AuditService
	AuthService  *service.AuthService
}

// HandleList handles GET /admin/logs. Filters arrive as query parameters;
// unknown action/severity/status values are rejected rather than silently
// matching nothing.
func (h *LogsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admin, ok := adminFromCtx(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	f, err := parseAuditFilter(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if !authorizeLogScope(&admin, &f) {
		httpx.WriteError(w, http.StatusForbidden, "permission_denied", "Cannot query another admin's log entries")
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", service.DefaultPageSize)

	result, err := h.AuditService.Query(ctx, f, page, pageSize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAuditPageResponse(result))
}

// HandleRecent handles GET /admin/logs/recent.
func (h *LogsHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.AuditService.Recent(ctx, queryInt(r, "limit", service.DefaultPageSize))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditEntryResponse(e))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"entries": out})
}

// HandleSecurity handles GET /admin/logs/security.
func (h *LogsHandler) HandleSecurity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.AuditService.SecurityEvents(ctx,
		queryInt(r, "window_days", service.DefaultSummaryWindowDays),
		queryInt(r, "page", 1),
		queryInt(r, "page_size", service.DefaultPageSize),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAuditPageResponse(result))
}

// HandleSummary handles GET /admin/logs/summary.
func (h *LogsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.AuditService.Summary(ctx, queryInt(r, "window_days", service.DefaultSummaryWindowDays))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAuditSummaryResponse(summary))
}

// HandleExport handles GET /admin/logs/export. Same filter semantics as the
// list endpoint, returned as a single JSON document.
func (h *LogsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admin, ok := adminFromCtx(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	f, err := parseAuditFilter(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if !authorizeLogScope(&admin, &f) {
		httpx.WriteError(w, http.StatusForbidden, "permission_denied", "Cannot export another admin's log entries")
		return
	}

	entries, err := h.AuditService.Export(ctx, f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditEntryResponse(e))
	}

	w.Header().Set("Content-Disposition", `attachment; filename="audit-log.json"`)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"exported_at": time.Now().UTC(),
		"count":       len(out),
		"entries":     out,
	})
}

// HandleForceLogoutAll handles POST /admin/logs/force-logout-all. Routing
// already restricts this to the top role.
func (h *LogsHandler) HandleForceLogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admin, ok := adminFromCtx(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	cleared, err := h.AuthService.ForceLogoutAll(ctx, admin.ID, clientMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"sessions_cleared": cleared})
}

// authorizeLogScope enforces the horizontal privilege rule: only the top
// role may query entries belonging to another admin. A filter without an
// admin_id is unscoped; any view_audit_logs holder may browse the shared
// log, the guard only blocks targeting a specific other admin.
func authorizeLogScope(admin *domain.Admin, f *domain.AuditFilter) bool {
	if admin.Role == domain.RoleSuperAdmin {
		return true
	}
	if f.AdminID == "" {
		return true
	}
	return f.AdminID == admin.ID
}

func parseAuditFilter(r *http.Request) (domain.AuditFilter, error) {
	q := r.URL.Query()
	var f domain.AuditFilter

	f.AdminID = q.Get("admin_id")

	if v := q.Get("action"); v != "" {
		a, err := domain.ParseAction(v)
		if err != nil {
			return domain.AuditFilter{}, err
		}
		f.Action = a
	}
	if v := q.Get("severity"); v != "" {
		s, err := domain.ParseSeverity(v)
		if err != nil {
			return domain.AuditFilter{}, err
		}
		f.Severity = s
	}
	if v := q.Get("status"); v != "" {
		s, err := domain.ParseStatus(v)
		if err != nil {
			return domain.AuditFilter{}, err
		}
		f.Status = s
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return domain.AuditFilter{}, err
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return domain.AuditFilter{}, err
		}
		f.To = t
	}
	return f, nil
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
