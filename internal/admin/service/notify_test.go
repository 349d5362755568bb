package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/labourhub/adminauth/internal/admin/domain"
)

func TestNotifyOthersExcludesActorAndInactive(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	actor := seedAdmin(t, env.store, "actor@example.com", "correct horse battery", domain.RoleAdmin)
	seedAdmin(t, env.store, "bob@example.com", "correct horse battery", domain.RoleAdmin)
	seedAdmin(t, env.store, "carol@example.com", "correct horse battery", domain.RoleAdmin)
	dormant := seedAdmin(t, env.store, "dormant@example.com", "correct horse battery", domain.RoleAdmin)
	require.NoError(t, env.store.Admins().SetActive(ctx, dormant.ID, false))

	report, err := env.notify.NotifyOthers(ctx, actor.ID, "Security notice", "Something happened.", meta())
	require.NoError(t, err)
	require.Equal(t, domain.DeliveryReport{Recipients: 2, Delivered: 2}, report)

	recipients := map[string]bool{}
	env.notifier.mu.Lock()
	for _, m := range env.notifier.emails {
		recipients[m.To] = true
	}
	env.notifier.mu.Unlock()
	require.Equal(t, map[string]bool{
		"bob@example.com":   true,
		"carol@example.com": true,
	}, recipients)

	entries, err := env.audit.Export(ctx, domain.AuditFilter{Action: domain.ActionNotificationSent})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, actor.ID, entries[0].AdminID)
	require.Equal(t, domain.StatusSuccess, entries[0].Status)
	require.Equal(t, "2", entries[0].Metadata["recipients"])
	require.Equal(t, "2", entries[0].Metadata["delivered"])
	require.Equal(t, "0", entries[0].Metadata["failed"])
}

func TestNotifyOthersCountsPartialFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	actor := seedAdmin(t, env.store, "actor@example.com", "correct horse battery", domain.RoleAdmin)
	seedAdmin(t, env.store, "bob@example.com", "correct horse battery", domain.RoleAdmin)
	seedAdmin(t, env.store, "carol@example.com", "correct horse battery", domain.RoleAdmin)

	env.notifier.emailErr = func(to string) error {
		if to == "bob@example.com" {
			return errDelivery
		}
		return nil
	}

	report, err := env.notify.NotifyOthers(ctx, actor.ID, "Security notice", "Something happened.", meta())
	require.NoError(t, err, "individual delivery failures never fail the broadcast")
	require.Equal(t, domain.DeliveryReport{Recipients: 2, Delivered: 1, Failed: 1}, report)

	entries, err := env.audit.Export(ctx, domain.AuditFilter{Action: domain.ActionNotificationSent})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domain.StatusSuccess, entries[0].Status)
	require.Equal(t, "1", entries[0].Metadata["failed"])
}

func TestNotifyOthersTotalFailureMarksFailed(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	actor := seedAdmin(t, env.store, "actor@example.com", "correct horse battery", domain.RoleAdmin)
	seedAdmin(t, env.store, "bob@example.com", "correct horse battery", domain.RoleAdmin)

	env.notifier.emailErr = func(string) error { return errDelivery }

	report, err := env.notify.NotifyOthers(ctx, actor.ID, "Security notice", "Something happened.", meta())
	require.NoError(t, err)
	require.Equal(t, domain.DeliveryReport{Recipients: 1, Failed: 1}, report)

	entries, err := env.audit.Export(ctx, domain.AuditFilter{Action: domain.ActionNotificationSent})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domain.StatusFailed, entries[0].Status)
}

func TestNotifyOthersNoRecipients(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	actor := seedAdmin(t, env.store, "actor@example.com", "correct horse battery", domain.RoleAdmin)

	report, err := env.notify.NotifyOthers(ctx, actor.ID, "Security notice", "Something happened.", meta())
	require.NoError(t, err)
	require.Equal(t, domain.DeliveryReport{}, report)
	require.Zero(t, env.notifier.emailCount())
}
