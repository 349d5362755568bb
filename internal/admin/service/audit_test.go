package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/labourhub/adminauth/internal/admin/domain"
)

// recordAt appends an entry with an explicit timestamp so ordering and
// window tests are deterministic.
func recordAt(t *testing.T, audit *AuditService, adminID string, action domain.Action, sev domain.Severity, status domain.Status, at time.Time) {
	t.Helper()
	require.NoError(t, audit.Record(context.Background(), domain.AuditEntry{
		AdminID:     adminID,
		Action:      action,
		Description: string(action),
		Severity:    sev,
		Status:      status,
		IP:          "203.0.113.7",
		UserAgent:   "go-test",
		CreatedAt:   at,
	}))
}

func TestAuditRecordRejectsUnknownEnums(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	admin := seedAdmin(t, env.store, "auditor@example.com", "correct horse battery", domain.RoleAdmin)

	base := domain.AuditEntry{
		AdminID:  admin.ID,
		Action:   domain.ActionLogin,
		Severity: domain.SeverityLow,
		Status:   domain.StatusSuccess,
	}

	bad := base
	bad.Action = "DROPPED_TABLE"
	require.ErrorIs(t, env.audit.Record(ctx, bad), domain.ErrUnknownAction)

	bad = base
	bad.Severity = "SEVERE"
	require.ErrorIs(t, env.audit.Record(ctx, bad), domain.ErrUnknownSeverity)

	bad = base
	bad.Status = "OK"
	require.ErrorIs(t, env.audit.Record(ctx, bad), domain.ErrUnknownStatus)

	count, err := env.store.AuditLog().Count(ctx, domain.AuditFilter{})
	require.NoError(t, err)
	require.Zero(t, count, "rejected entries must not be stored")

	require.NoError(t, env.audit.Record(ctx, base))
}

func TestAuditQueryFiltersCombine(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice := seedAdmin(t, env.store, "alice@example.com", "correct horse battery", domain.RoleAdmin)
	bob := seedAdmin(t, env.store, "bob@example.com", "correct horse battery", domain.RoleAdmin)

	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	recordAt(t, env.audit, alice.ID, domain.ActionLogin, domain.SeverityLow, domain.StatusSuccess, base)
	recordAt(t, env.audit, alice.ID, domain.ActionFailedLoginAttempt, domain.SeverityMedium, domain.StatusFailed, base.Add(time.Minute))
	recordAt(t, env.audit, bob.ID, domain.ActionFailedLoginAttempt, domain.SeverityMedium, domain.StatusFailed, base.Add(2*time.Minute))
	recordAt(t, env.audit, alice.ID, domain.ActionLogin, domain.SeverityLow, domain.StatusFailed, base.Add(3*time.Minute))

	t.Run("actor and action and status narrow together", func(t *testing.T) {
		page, err := env.audit.Query(ctx, domain.AuditFilter{
			AdminID: alice.ID,
			Action:  domain.ActionLogin,
			Status:  domain.StatusFailed,
		}, 1, 0)
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		require.Len(t, page.Entries, 1)
		require.Equal(t, alice.ID, page.Entries[0].AdminID)
		require.Equal(t, domain.ActionLogin, page.Entries[0].Action)
		require.Equal(t, domain.StatusFailed, page.Entries[0].Status)
	})

	t.Run("date range bounds inclusive", func(t *testing.T) {
		page, err := env.audit.Query(ctx, domain.AuditFilter{
			From: base.Add(time.Minute),
			To:   base.Add(2 * time.Minute),
		}, 1, 0)
		require.NoError(t, err)
		require.EqualValues(t, 2, page.Total)
		for _, e := range page.Entries {
			require.Equal(t, domain.ActionFailedLoginAttempt, e.Action)
		}
	})

	t.Run("zero filter matches everything", func(t *testing.T) {
		page, err := env.audit.Query(ctx, domain.AuditFilter{}, 1, 0)
		require.NoError(t, err)
		require.EqualValues(t, 4, page.Total)
	})
}

func TestAuditQueryPaginates(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	admin := seedAdmin(t, env.store, "auditor@example.com", "correct horse battery", domain.RoleAdmin)

	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		recordAt(t, env.audit, admin.ID, domain.ActionLogin, domain.SeverityLow, domain.StatusSuccess, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := env.audit.Query(ctx, domain.AuditFilter{}, 1, 2)
	require.NoError(t, err)
	require.EqualValues(t, 5, first.Total)
	require.Equal(t, 3, first.TotalPages)
	require.Len(t, first.Entries, 2)

	// Newest first.
	require.Equal(t, base.Add(4*time.Minute), first.Entries[0].CreatedAt.UTC())
	require.Equal(t, base.Add(3*time.Minute), first.Entries[1].CreatedAt.UTC())

	last, err := env.audit.Query(ctx, domain.AuditFilter{}, 3, 2)
	require.NoError(t, err)
	require.Len(t, last.Entries, 1)
	require.Equal(t, base, last.Entries[0].CreatedAt.UTC())

	t.Run("page size is clamped", func(t *testing.T) {
		page, err := env.audit.Query(ctx, domain.AuditFilter{}, 0, MaxPageSize+1)
		require.NoError(t, err)
		require.Equal(t, 1, page.Page)
		require.Equal(t, MaxPageSize, page.PageSize)
	})
}

func TestSecurityEventsMembership(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	admin := seedAdmin(t, env.store, "auditor@example.com", "correct horse battery", domain.RoleAdmin)

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	env.setNow(now)

	// In by severity, regardless of action.
	recordAt(t, env.audit, admin.ID, domain.ActionPasswordChange, domain.SeverityHigh, domain.StatusSuccess, now.Add(-time.Hour))
	recordAt(t, env.audit, admin.ID, domain.ActionForceLogout, domain.SeverityCritical, domain.StatusSuccess, now.Add(-2*time.Hour))
	// In by action, despite low severity.
	recordAt(t, env.audit, admin.ID, domain.ActionFailedLoginAttempt, domain.SeverityLow, domain.StatusFailed, now.Add(-3*time.Hour))
	// Out: routine entry.
	recordAt(t, env.audit, admin.ID, domain.ActionLogin, domain.SeverityLow, domain.StatusSuccess, now.Add(-4*time.Hour))
	// Out: security-grade but older than the window.
	recordAt(t, env.audit, admin.ID, domain.ActionAccountLocked, domain.SeverityHigh, domain.StatusSuccess, now.AddDate(0, 0, -8))

	page, err := env.audit.SecurityEvents(ctx, DefaultSummaryWindowDays, 1, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, page.Total)

	actions := make([]domain.Action, 0, len(page.Entries))
	for _, e := range page.Entries {
		actions = append(actions, e.Action)
	}
	require.Equal(t, []domain.Action{
		domain.ActionPasswordChange,
		domain.ActionForceLogout,
		domain.ActionFailedLoginAttempt,
	}, actions)
}

func TestAuditSummaryAggregates(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice := seedAdmin(t, env.store, "alice@example.com", "correct horse battery", domain.RoleAdmin)
	bob := seedAdmin(t, env.store, "bob@example.com", "correct horse battery", domain.RoleAdmin)

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	env.setNow(now)

	recordAt(t, env.audit, alice.ID, domain.ActionLogin, domain.SeverityLow, domain.StatusSuccess, now.Add(-time.Hour))
	recordAt(t, env.audit, alice.ID, domain.ActionLogin, domain.SeverityLow, domain.StatusSuccess, now.Add(-2*time.Hour))
	recordAt(t, env.audit, alice.ID, domain.ActionFailedLoginAttempt, domain.SeverityMedium, domain.StatusFailed, now.Add(-3*time.Hour))
	recordAt(t, env.audit, bob.ID, domain.ActionLogin, domain.SeverityLow, domain.StatusSuccess, now.Add(-4*time.Hour))
	// Outside the window; must not count anywhere.
	recordAt(t, env.audit, bob.ID, domain.ActionForceLogout, domain.SeverityCritical, domain.StatusSuccess, now.AddDate(0, 0, -8))

	sum, err := env.audit.Summary(ctx, DefaultSummaryWindowDays)
	require.NoError(t, err)

	require.EqualValues(t, 3, sum.ByAction[domain.ActionLogin])
	require.EqualValues(t, 1, sum.ByAction[domain.ActionFailedLoginAttempt])
	require.NotContains(t, sum.ByAction, domain.ActionForceLogout)

	require.EqualValues(t, 3, sum.BySeverity[domain.SeverityLow])
	require.EqualValues(t, 1, sum.BySeverity[domain.SeverityMedium])

	require.EqualValues(t, 3, sum.ByStatus[domain.StatusSuccess])
	require.EqualValues(t, 1, sum.ByStatus[domain.StatusFailed])

	require.Len(t, sum.TopActors, 2)
	require.Equal(t, alice.ID, sum.TopActors[0].AdminID)
	require.EqualValues(t, 3, sum.TopActors[0].Count)
	require.Equal(t, bob.ID, sum.TopActors[1].AdminID)
	require.EqualValues(t, 1, sum.TopActors[1].Count)
}

func TestAuditExportRespectsFilter(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	admin := seedAdmin(t, env.store, "auditor@example.com", "correct horse battery", domain.RoleAdmin)

	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	recordAt(t, env.audit, admin.ID, domain.ActionLogin, domain.SeverityLow, domain.StatusSuccess, base)
	recordAt(t, env.audit, admin.ID, domain.ActionLogout, domain.SeverityLow, domain.StatusSuccess, base.Add(time.Minute))
	recordAt(t, env.audit, admin.ID, domain.ActionLogin, domain.SeverityLow, domain.StatusFailed, base.Add(2*time.Minute))

	entries, err := env.audit.Export(ctx, domain.AuditFilter{Action: domain.ActionLogin})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, domain.ActionLogin, e.Action)
	}
	// Newest first.
	require.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))
}
