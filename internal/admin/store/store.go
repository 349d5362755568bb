package store

import (
	"context"
	"errors"
	"time"

	"github.com/labourhub/adminauth/internal/admin/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Admins() Admins
	AuditLog() AuditLog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Admins interface {
	// CreateAdmin inserts a new admin (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email or phone is already taken.
	CreateAdmin(ctx context.Context, a domain.Admin) error

	GetAdminByID(ctx context.Context, id string) (domain.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (domain.Admin, error)
	GetAdminByPhone(ctx context.Context, phone string) (domain.Admin, error)

	// ListActiveAdmins returns every admin with the active flag set,
	// ordered by creation date. Used by the notification fan-out.
	ListActiveAdmins(ctx context.Context) ([]domain.Admin, error)

	// IsEmpty returns true if there are no admins (bootstrap check).
	IsEmpty(ctx context.Context) (bool, error)

	// UpdateProfile mutates name/email/phone and bumps updated_at.
	// Returns ErrAlreadyExists when the new email or phone collides.
	UpdateProfile(ctx context.Context, id, name, email, phone string) error

	// UpdatePassword overwrites the password hash, appending the previous
	// hash to the bounded history first. Reuse policy is the caller's job;
	// the store only persists the history.
	UpdatePassword(ctx context.Context, id, newHash string) error

	// UpdatePermissions replaces the permission set.
	UpdatePermissions(ctx context.Context, id string, perms []domain.Permission) error

	// SetActive flips the soft-lifecycle flag.
	SetActive(ctx context.Context, id string, active bool) error

	// SetSession unconditionally overwrites the stored access token, its
	// expiry and the refresh token fingerprint, and marks the admin logged
	// in. This is the single-session enforcement point: last write wins.
	SetSession(ctx context.Context, id, token string, expiry time.Time, refreshHash string) error

	// ClearSession nulls the session fields and marks the admin logged out.
	ClearSession(ctx context.Context, id string) error

	// ClearAllSessions logs out every admin. Returns the number of sessions
	// that were actually cleared.
	ClearAllSessions(ctx context.Context) (int64, error)

	// TouchActivity refreshes the last-activity timestamp.
	TouchActivity(ctx context.Context, id string, at time.Time) error

	// SetLoginFailure records a failed attempt count and optional lockout.
	SetLoginFailure(ctx context.Context, id string, failed int, lockUntil *time.Time) error

	// ResetLoginFailures zeroes the counter and clears any lockout.
	ResetLoginFailures(ctx context.Context, id string) error

	// SetOTP stores a fresh code, expiry, purpose and staged changes,
	// replacing any previously unused code for the identity.
	SetOTP(ctx context.Context, id, code string, expiry time.Time, purpose domain.OTPPurpose, pending map[string]string) error

	// ClearOTP removes the code, expiry, purpose and staged changes.
	ClearOTP(ctx context.Context, id string) error

	// ClearExpiredOTPs removes codes past their expiry (housekeeping).
	ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error)

	// ClearExpiredSessions logs out admins whose token expiry has passed
	// (housekeeping; Validate rejects these regardless).
	ClearExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type AuditLog interface {
	// Append inserts a new entry. The audit log is append-only: no
	// operation in this interface mutates or deletes existing entries.
	Append(ctx context.Context, e domain.AuditEntry) error

	// Query returns entries matching the filter, newest first.
	Query(ctx context.Context, f domain.AuditFilter, limit, offset int) ([]domain.AuditEntry, error)

	// Count returns the total number of entries matching the filter.
	Count(ctx context.Context, f domain.AuditFilter) (int64, error)

	// SecurityEvents returns entries with severity HIGH/CRITICAL or an
	// action in the fixed security-sensitive set, newest first.
	SecurityEvents(ctx context.Context, since time.Time, limit, offset int) ([]domain.AuditEntry, error)

	CountSecurityEvents(ctx context.Context, since time.Time) (int64, error)

	// Aggregations over a trailing window.
	CountByAction(ctx context.Context, since time.Time) (map[domain.Action]int64, error)
	CountBySeverity(ctx context.Context, since time.Time) (map[domain.Severity]int64, error)
	CountByStatus(ctx context.Context, since time.Time) (map[domain.Status]int64, error)

	// TopActors ranks admins by entry count within the window, joined with
	// display name and email.
	TopActors(ctx context.Context, since time.Time, limit int) ([]domain.ActorCount, error)
}
