package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/labourhub/adminauth/internal/admin/domain"
)

type adminsRepo struct {
	db dbtx
}

const adminColumns = `id, name, email, phone, password_hash, role, permissions, active, collaborator,
	failed_logins, lock_until, password_history, password_changed_at,
	current_token, token_expiry, refresh_token_hash, is_logged_in, last_activity,
	otp_code, otp_expiry, otp_purpose, pending_changes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (domain.Admin, error) {
	var (
		a               domain.Admin
		role            string
		permissions     string
		lockUntil       sql.NullTime
		history         string
		passwordChanged sql.NullTime
		currentToken    sql.NullString
		tokenExpiry     sql.NullTime
		refreshHash     sql.NullString
		lastActivity    sql.NullTime
		otpCode         sql.NullString
		otpExpiry       sql.NullTime
		otpPurpose      string
		pending         sql.NullString
	)

	var phone sql.NullString
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &phone, &a.PasswordHash, &role, &permissions,
		&a.Active, &a.Collaborator,
		&a.FailedLogins, &lockUntil, &history, &passwordChanged,
		&currentToken, &tokenExpiry, &refreshHash, &a.IsLoggedIn, &lastActivity,
		&otpCode, &otpExpiry, &otpPurpose, &pending,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Admin{}, err
	}

	a.Phone = phone.String
	a.Role = domain.Role(role)
	a.Permissions = splitPermissions(permissions)
	a.LockUntil = mapNullTimePtr(lockUntil)
	a.PasswordHistory = unmarshalHistory(history)
	a.PasswordChangedAt = mapNullTimePtr(passwordChanged)
	a.CurrentToken = mapNullStringPtr(currentToken)
	a.TokenExpiry = mapNullTimePtr(tokenExpiry)
	a.RefreshTokenHash = mapNullStringPtr(refreshHash)
	a.LastActivity = mapNullTimePtr(lastActivity)
	a.OTPCode = mapNullStringPtr(otpCode)
	a.OTPExpiry = mapNullTimePtr(otpExpiry)
	a.OTPPurpose = domain.OTPPurpose(otpPurpose)
	a.PendingChanges = unmarshalStringMap(pending)

	return a, nil
}

func (r *adminsRepo) CreateAdmin(ctx context.Context, a domain.Admin) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (id, name, email, phone, password_hash, role, permissions, active, collaborator, password_history)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, nullIfEmpty(a.Phone), a.PasswordHash,
		string(a.Role), joinPermissions(a.Permissions), a.Active, a.Collaborator,
		marshalHistory(a.PasswordHistory),
	)
	return mapConstraint(err)
}

func (r *adminsRepo) GetAdminByID(ctx context.Context, id string) (domain.Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
	a, err := scanAdmin(row)
	if err != nil {
		return domain.Admin{}, mapNotFound(err)
	}
	return a, nil
}

func (r *adminsRepo) GetAdminByEmail(ctx context.Context, email string) (domain.Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE email = ?`, email)
	a, err := scanAdmin(row)
	if err != nil {
		return domain.Admin{}, mapNotFound(err)
	}
	return a, nil
}

func (r *adminsRepo) GetAdminByPhone(ctx context.Context, phone string) (domain.Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE phone = ?`, phone)
	a, err := scanAdmin(row)
	if err != nil {
		return domain.Admin{}, mapNotFound(err)
	}
	return a, nil
}

func (r *adminsRepo) ListActiveAdmins(ctx context.Context) ([]domain.Admin, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE active = 1 ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *adminsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *adminsRepo) UpdateProfile(ctx context.Context, id, name, email, phone string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET name = ?, email = ?, phone = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		name, email, nullIfEmpty(phone), id)
	return mapConstraint(err)
}

// nullIfEmpty maps "" to NULL so the unique phone index ignores admins
// without a phone on file.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// UpdatePassword appends the outgoing hash to the bounded history before
// overwriting it. History keeps the most recent prior hashes first.
func (r *adminsRepo) UpdatePassword(ctx context.Context, id, newHash string) error {
	row := r.db.QueryRowContext(ctx,
		`SELECT password_hash, password_history FROM admins WHERE id = ?`, id)

	var currentHash, historyJSON string
	if err := row.Scan(&currentHash, &historyJSON); err != nil {
		return mapNotFound(err)
	}

	history := append([]string{currentHash}, unmarshalHistory(historyJSON)...)
	if len(history) > passwordHistoryBound {
		history = history[:passwordHistoryBound]
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET password_hash = ?, password_history = ?,
			password_changed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		newHash, marshalHistory(history), id)
	return err
}

const passwordHistoryBound = 5

func (r *adminsRepo) UpdatePermissions(ctx context.Context, id string, perms []domain.Permission) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET permissions = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		joinPermissions(perms), id)
	return err
}

func (r *adminsRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, id)
	return err
}

// SetSession overwrites the stored session unconditionally. Last write wins:
// a second login silently invalidates the first session's token value.
func (r *adminsRepo) SetSession(ctx context.Context, id, token string, expiry time.Time, refreshHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET current_token = ?, token_expiry = ?, refresh_token_hash = ?,
			is_logged_in = 1, last_activity = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		token, expiry.UTC(), refreshHash, id)
	return err
}

func (r *adminsRepo) ClearSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET current_token = NULL, token_expiry = NULL, refresh_token_hash = NULL,
			is_logged_in = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		id)
	return err
}

func (r *adminsRepo) ClearAllSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admins SET current_token = NULL, token_expiry = NULL, refresh_token_hash = NULL,
			is_logged_in = 0, updated_at = CURRENT_TIMESTAMP
		WHERE is_logged_in = 1`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *adminsRepo) TouchActivity(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admins SET last_activity = ? WHERE id = ?`, at.UTC(), id)
	return err
}

func (r *adminsRepo) SetLoginFailure(ctx context.Context, id string, failed int, lockUntil *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET failed_logins = ?, lock_until = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		failed, mapOptionalTime(lockUntil), id)
	return err
}

func (r *adminsRepo) ResetLoginFailures(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET failed_logins = 0, lock_until = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		id)
	return err
}

func (r *adminsRepo) SetOTP(ctx context.Context, id, code string, expiry time.Time, purpose domain.OTPPurpose, pending map[string]string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET otp_code = ?, otp_expiry = ?, otp_purpose = ?, pending_changes = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		code, expiry.UTC(), string(purpose), marshalStringMap(pending), id)
	return err
}

func (r *adminsRepo) ClearOTP(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admins SET otp_code = NULL, otp_expiry = NULL, otp_purpose = 'none',
			pending_changes = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		id)
	return err
}

func (r *adminsRepo) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admins SET otp_code = NULL, otp_expiry = NULL, otp_purpose = 'none',
			pending_changes = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE otp_code IS NOT NULL AND otp_expiry < ?`,
		now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *adminsRepo) ClearExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admins SET current_token = NULL, token_expiry = NULL, refresh_token_hash = NULL,
			is_logged_in = 0, updated_at = CURRENT_TIMESTAMP
		WHERE is_logged_in = 1 AND token_expiry < ?`,
		now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
