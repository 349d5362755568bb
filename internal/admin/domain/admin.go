package domain

import (
	"errors"
	"slices"
	"time"
)

// Role is the coarse privilege tier of an admin identity.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleModerator  Role = "moderator"
)

var ErrUnknownRole = errors.New("domain: unknown role")

// ParseRole validates a role string at the boundary. Unrecognized roles fail
// fast rather than being carried around as untyped strings.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleModerator:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

// Permission is one entry of the closed permission set.
type Permission string

const (
	PermManageUsers         Permission = "manage_users"
	PermManageLaborers      Permission = "manage_laborers"
	PermManageJobs          Permission = "manage_jobs"
	PermManageReviews       Permission = "manage_reviews"
	PermManageDocuments     Permission = "manage_documents"
	PermManageReports       Permission = "manage_reports"
	PermManageNotifications Permission = "manage_notifications"
	PermViewAnalytics       Permission = "view_analytics"
	PermSystemSettings      Permission = "system_settings"
	PermManageAdmins        Permission = "manage_admins"
	PermViewAuditLogs       Permission = "view_audit_logs"
)

// AllPermissions is the full closed set, in stable order.
var AllPermissions = []Permission{
	PermManageUsers,
	PermManageLaborers,
	PermManageJobs,
	PermManageReviews,
	PermManageDocuments,
	PermManageReports,
	PermManageNotifications,
	PermViewAnalytics,
	PermSystemSettings,
	PermManageAdmins,
	PermViewAuditLogs,
}

var ErrUnknownPermission = errors.New("domain: unknown permission")

// ParsePermission validates a permission string against the closed set.
func ParsePermission(s string) (Permission, error) {
	if slices.Contains(AllPermissions, Permission(s)) {
		return Permission(s), nil
	}
	return "", ErrUnknownPermission
}

// ParsePermissions validates a list; the first unknown entry fails the call.
func ParsePermissions(ss []string) ([]Permission, error) {
	out := make([]Permission, 0, len(ss))
	for _, s := range ss {
		p, err := ParsePermission(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Admin is an administrator identity, distinct from regular marketplace
// users. The session and OTP fields live on the identity record itself: the
// stored token is the sole source of truth for session validity, which is
// what makes forced single-session and remote invalidation possible.
type Admin struct {
	ID           string
	Name         string
	Email        string // unique
	Phone        string // unique
	PasswordHash string // argon2id encoded
	Role         Role
	Permissions  []Permission
	Active       bool
	Collaborator bool

	FailedLogins      int
	LockUntil         *time.Time
	PasswordHistory   []string // prior hashes, most recent first, bounded
	PasswordChangedAt *time.Time

	// Session state. IsLoggedIn is true iff CurrentToken is set and
	// TokenExpiry is in the future; a new login overwrites all of it.
	CurrentToken     *string
	TokenExpiry      *time.Time
	RefreshTokenHash *string
	IsLoggedIn       bool
	LastActivity     *time.Time

	// OTP state. At most one unused unexpired code per purpose; issuing a
	// new one replaces the old.
	OTPCode        *string
	OTPExpiry      *time.Time
	OTPPurpose     OTPPurpose
	PendingChanges map[string]string // staged profile fields awaiting OTP

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether login attempts must be rejected regardless of
// password correctness.
func (a *Admin) Locked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// HasPermission reports whether the admin holds the named permission.
// The top role bypasses fine-grained permission checks entirely.
func (a *Admin) HasPermission(p Permission) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return slices.Contains(a.Permissions, p)
}
