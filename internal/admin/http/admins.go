package http

import (
	"encoding/json"
	"net/http"

	"github.com/labourhub/adminauth/pkg/httpx"

	"github.com/labourhub/adminauth/internal/admin/service"
)

// AdminsHandler handles admin account provisioning and management. Routing
// restricts these to holders of the manage_admins permission.
type AdminsHandler struct {
	AdminService *service.AdminService
}

// HandleCreate handles POST /admin/auth/admins.
func (h *AdminsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := adminFromCtx(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	var req createAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	created, err := h.AdminService.Provision(ctx, actor.ID, service.ProvisionInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		Role:         req.Role,
		Permissions:  req.Permissions,
		Collaborator: req.Collaborator,
	}, clientMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toAdminResponse(created))
}

// HandleSetActive handles PUT /admin/auth/admins/{id}/active.
func (h *AdminsHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := adminFromCtx(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	id := r.PathValue("id")
	if id == actor.ID && !req.Active {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "cannot deactivate your own account")
		return
	}

	if err := h.AdminService.SetActive(ctx, actor.ID, id, req.Active, clientMeta(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

// HandleUpdatePermissions handles PUT /admin/auth/admins/{id}/permissions.
func (h *AdminsHandler) HandleUpdatePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := adminFromCtx(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	id := r.PathValue("id")
	if err := h.AdminService.UpdatePermissions(ctx, actor.ID, id, req.Permissions, clientMeta(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	updated, err := h.AdminService.Get(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAdminResponse(updated))
}
