package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/labourhub/adminauth/pkg/idx"
	"github.com/labourhub/adminauth/pkg/jwtx"
	"github.com/labourhub/adminauth/pkg/slogx"

	"github.com/labourhub/adminauth/internal/admin/domain"
	"github.com/labourhub/adminauth/internal/admin/store"
)

const (
	// DefaultPageSize applies when a query omits the page size.
	DefaultPageSize = 20

	// MaxPageSize caps a single page regardless of what the client asks for.
	MaxPageSize = 100

	// DefaultSummaryWindowDays is the trailing window for summaries.
	DefaultSummaryWindowDays = 7

	topActorsLimit = 5

	// exportCap bounds a single export so a broad filter cannot pull the
	// whole table into memory.
	exportCap = 10000
)

// AuditService records and reads the append-only trail of admin actions.
// Writes are synchronous so a security-relevant entry exists before the
// response that triggered it goes out.
type AuditService struct {
	Store store.Store

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *AuditService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Record validates and appends one entry. Unknown actions, severities or
// statuses are rejected outright rather than stored as free text.
func (s *AuditService) Record(ctx context.Context, e domain.AuditEntry) error {
	if _, err := domain.ParseAction(string(e.Action)); err != nil {
		return err
	}
	if _, err := domain.ParseSeverity(string(e.Severity)); err != nil {
		return err
	}
	if _, err := domain.ParseStatus(string(e.Status)); err != nil {
		return err
	}

	if e.ID == "" {
		e.ID = idx.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	return s.Store.AuditLog().Append(ctx, e)
}

// record is the internal convenience used by the other services. Failures
// are logged but never fail the operation that produced the entry; the
// operation itself already happened.
func (s *AuditService) record(ctx context.Context, adminID string, action domain.Action, desc string, sev domain.Severity, status domain.Status, meta jwtx.ClientMeta, extra map[string]string) {
	err := s.Record(ctx, domain.AuditEntry{
		AdminID:     adminID,
		Action:      action,
		Description: desc,
		Severity:    sev,
		Status:      status,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Metadata:    extra,
	})
	if err != nil {
		slogx.FromContext(ctx).ErrorContext(ctx, "audit record failed",
			slog.String("action", string(action)),
			slog.String("admin_id", adminID),
			slog.Any("error", err),
		)
	}
}

// Query returns one page of entries matching the filter, newest first, with
// total counts for pagination.
func (s *AuditService) Query(ctx context.Context, f domain.AuditFilter, page, pageSize int) (domain.AuditPage, error) {
	page, pageSize = clampPage(page, pageSize)

	total, err := s.Store.AuditLog().Count(ctx, f)
	if err != nil {
		return domain.AuditPage{}, err
	}

	entries, err := s.Store.AuditLog().Query(ctx, f, pageSize, (page-1)*pageSize)
	if err != nil {
		return domain.AuditPage{}, err
	}

	return domain.AuditPage{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// Recent returns the newest entries without filtering.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	return s.Store.AuditLog().Query(ctx, domain.AuditFilter{}, limit, 0)
}

// SecurityEvents pages through the security view: entries of HIGH or
// CRITICAL severity plus the fixed set of security-sensitive actions.
func (s *AuditService) SecurityEvents(ctx context.Context, windowDays, page, pageSize int) (domain.AuditPage, error) {
	page, pageSize = clampPage(page, pageSize)
	since := s.windowStart(windowDays)

	total, err := s.Store.AuditLog().CountSecurityEvents(ctx, since)
	if err != nil {
		return domain.AuditPage{}, err
	}

	entries, err := s.Store.AuditLog().SecurityEvents(ctx, since, pageSize, (page-1)*pageSize)
	if err != nil {
		return domain.AuditPage{}, err
	}

	return domain.AuditPage{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// Summary aggregates the trailing window: counts per action, severity and
// status, plus the most active admins.
func (s *AuditService) Summary(ctx context.Context, windowDays int) (domain.AuditSummary, error) {
	since := s.windowStart(windowDays)

	byAction, err := s.Store.AuditLog().CountByAction(ctx, since)
	if err != nil {
		return domain.AuditSummary{}, err
	}
	bySeverity, err := s.Store.AuditLog().CountBySeverity(ctx, since)
	if err != nil {
		return domain.AuditSummary{}, err
	}
	byStatus, err := s.Store.AuditLog().CountByStatus(ctx, since)
	if err != nil {
		return domain.AuditSummary{}, err
	}
	actors, err := s.Store.AuditLog().TopActors(ctx, since, topActorsLimit)
	if err != nil {
		return domain.AuditSummary{}, err
	}

	return domain.AuditSummary{
		ByAction:   byAction,
		BySeverity: bySeverity,
		ByStatus:   byStatus,
		TopActors:  actors,
	}, nil
}

// Export returns every entry matching the filter, newest first, capped so a
// broad filter cannot exhaust memory.
func (s *AuditService) Export(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	return s.Store.AuditLog().Query(ctx, f, exportCap, 0)
}

func (s *AuditService) windowStart(days int) time.Time {
	if days <= 0 {
		days = DefaultSummaryWindowDays
	}
	return s.now().UTC().AddDate(0, 0, -days)
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
