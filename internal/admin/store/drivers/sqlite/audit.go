package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/labourhub/adminauth/internal/admin/domain"
)

type auditRepo struct {
	db dbtx
}

const auditColumns = `id, admin_id, action, description, severity, status, ip, user_agent, metadata, created_at`

func scanAuditEntry(row rowScanner) (domain.AuditEntry, error) {
	var (
		e        domain.AuditEntry
		action   string
		severity string
		status   string
		metadata sql.NullString
	)

	err := row.Scan(&e.ID, &e.AdminID, &action, &e.Description, &severity, &status,
		&e.IP, &e.UserAgent, &metadata, &e.CreatedAt)
	if err != nil {
		return domain.AuditEntry{}, err
	}

	e.Action = domain.Action(action)
	e.Severity = domain.Severity(severity)
	e.Status = domain.Status(status)
	e.Metadata = unmarshalStringMap(metadata)

	return e, nil
}

func (r *auditRepo) Append(ctx context.Context, e domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, admin_id, action, description, severity, status, ip, user_agent, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AdminID, string(e.Action), e.Description, string(e.Severity), string(e.Status),
		e.IP, e.UserAgent, marshalStringMap(e.Metadata), e.CreatedAt.UTC(),
	)
	return err
}

// filterClause builds the WHERE clause for a filter. All conditions AND
// together; zero values are skipped.
func filterClause(f domain.AuditFilter) (string, []any) {
	var conds []string
	var args []any

	if f.AdminID != "" {
		conds = append(conds, "admin_id = ?")
		args = append(args, f.AdminID)
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, string(f.Action))
	}
	if f.Severity != "" {
		conds = append(conds, "severity = ?")
		args = append(args, string(f.Severity))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.To.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *auditRepo) Query(ctx context.Context, f domain.AuditFilter, limit, offset int) ([]domain.AuditEntry, error) {
	where, args := filterClause(f)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_log`+where+
			` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *auditRepo) Count(ctx context.Context, f domain.AuditFilter) (int64, error) {
	where, args := filterClause(f)

	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log`+where, args...).Scan(&count)
	return count, err
}

// securityClause matches entries with severity HIGH/CRITICAL or an action in
// the fixed security-sensitive set.
func securityClause() (string, []any) {
	placeholders := make([]string, len(domain.SecurityActions))
	args := []any{string(domain.SeverityHigh), string(domain.SeverityCritical)}
	for i, a := range domain.SecurityActions {
		placeholders[i] = "?"
		args = append(args, string(a))
	}
	clause := `(severity IN (?, ?) OR action IN (` + strings.Join(placeholders, ", ") + `))`
	return clause, args
}

func (r *auditRepo) SecurityEvents(ctx context.Context, since time.Time, limit, offset int) ([]domain.AuditEntry, error) {
	clause, args := securityClause()
	args = append(args, since.UTC(), limit, offset)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_log WHERE `+clause+
			` AND created_at >= ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *auditRepo) CountSecurityEvents(ctx context.Context, since time.Time) (int64, error) {
	clause, args := securityClause()
	args = append(args, since.UTC())

	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE `+clause+` AND created_at >= ?`, args...).Scan(&count)
	return count, err
}

func (r *auditRepo) CountByAction(ctx context.Context, since time.Time) (map[domain.Action]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT action, COUNT(*) FROM audit_log WHERE created_at >= ?
		GROUP BY action`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.Action]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		out[domain.Action(key)] = count
	}
	return out, rows.Err()
}

func (r *auditRepo) CountBySeverity(ctx context.Context, since time.Time) (map[domain.Severity]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT severity, COUNT(*) FROM audit_log WHERE created_at >= ?
		GROUP BY severity`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.Severity]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		out[domain.Severity(key)] = count
	}
	return out, rows.Err()
}

func (r *auditRepo) CountByStatus(ctx context.Context, since time.Time) (map[domain.Status]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM audit_log WHERE created_at >= ?
		GROUP BY status`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.Status]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		out[domain.Status(key)] = count
	}
	return out, rows.Err()
}

func (r *auditRepo) TopActors(ctx context.Context, since time.Time, limit int) ([]domain.ActorCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.admin_id, a.name, a.email, COUNT(*) AS entries
		FROM audit_log l
		JOIN admins a ON a.id = l.admin_id
		WHERE l.created_at >= ?
		GROUP BY l.admin_id, a.name, a.email
		ORDER BY entries DESC
		LIMIT ?`, since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActorCount
	for rows.Next() {
		var ac domain.ActorCount
		if err := rows.Scan(&ac.AdminID, &ac.Name, &ac.Email, &ac.Count); err != nil {
			return nil, err
		}
		out = append(out, ac)
	}
	return out, rows.Err()
}

func collectEntries(rows *sql.Rows) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
