package http

import (
	"time"

	"github.com/labourhub/adminauth/internal/admin/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sendOTPRequest struct {
	// Identifier is the account email or phone number.
	Identifier string `json:"identifier"`
}

type verifyOTPRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type updateProfileRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Code  string `json:"code,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	Code            string `json:"code,omitempty"`
}

type createAdminRequest struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone,omitempty"`
	Password     string   `json:"password"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions,omitempty"`
	Collaborator bool     `json:"collaborator,omitempty"`
}

type otpPendingResponse struct {
	RequiresOTP bool  `json:"requires_otp"`
	ExpiresIn   int64 `json:"expires_in"` // seconds until the code expires
}

type loginResponse struct {
	Admin  adminResponse     `json:"admin"`
	Tokens *domain.TokenPair `json:"tokens"`
}

type adminResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Role         string     `json:"role"`
	Permissions  []string   `json:"permissions"`
	Active       bool       `json:"active"`
	Collaborator bool       `json:"collaborator"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toAdminResponse(a domain.Admin) adminResponse {
	perms := make([]string, 0, len(a.Permissions))
	for _, p := range a.Permissions {
		perms = append(perms, string(p))
	}
	return adminResponse{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		Role:         string(a.Role),
		Permissions:  perms,
		Active:       a.Active,
		Collaborator: a.Collaborator,
		LastActivity: a.LastActivity,
		CreatedAt:    a.CreatedAt,
	}
}

type auditEntryResponse struct {
	ID          string            `json:"id"`
	AdminID     string            `json:"admin_id"`
	Action      string            `json:"action"`
	Description string            `json:"description,omitempty"`
	Severity    string            `json:"severity"`
	Status      string            `json:"status"`
	IP          string            `json:"ip,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func toAuditEntryResponse(e domain.AuditEntry) auditEntryResponse {
	return auditEntryResponse{
		ID:          e.ID,
		AdminID:     e.AdminID,
		Action:      string(e.Action),
		Description: e.Description,
		Severity:    string(e.Severity),
		Status:      string(e.Status),
		IP:          e.IP,
		UserAgent:   e.UserAgent,
		Metadata:    e.Metadata,
		CreatedAt:   e.CreatedAt,
	}
}

type auditSummaryResponse struct {
	ByAction   map[domain.Action]int64   `json:"by_action"`
	BySeverity map[domain.Severity]int64 `json:"by_severity"`
	ByStatus   map[domain.Status]int64   `json:"by_status"`
	TopActors  []actorCountResponse      `json:"top_actors"`
}

type actorCountResponse struct {
	AdminID string `json:"admin_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Count   int64  `json:"count"`
}

func toAuditSummaryResponse(s domain.AuditSummary) auditSummaryResponse {
	actors := make([]actorCountResponse, 0, len(s.TopActors))
	for _, a := range s.TopActors {
		actors = append(actors, actorCountResponse(a))
	}
	return auditSummaryResponse{
		ByAction:   s.ByAction,
		BySeverity: s.BySeverity,
		ByStatus:   s.ByStatus,
		TopActors:  actors,
	}
}

type auditPageResponse struct {
	Entries    []auditEntryResponse `json:"entries"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

func toAuditPageResponse(p domain.AuditPage) auditPageResponse {
	entries := make([]auditEntryResponse, 0, len(p.Entries))
	for _, e := range p.Entries {
		entries = append(entries, toAuditEntryResponse(e))
	}
	return auditPageResponse{
		Entries:    entries,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}
