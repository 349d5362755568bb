package service

import (
	"context"
	"testing"
	"time"

	"github.com/labourhub/adminauth/internal/admin/domain"
	"github.com/stretchr/testify/require"
)

func TestOTPExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("valid just before expiry", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(t, env.store, "a@example.com", "pw-a-123456", domain.RoleAdmin)

		env.setNow(base)
		code, _, err := env.otp.Issue(ctx, admin.ID, domain.OTPPurposeLogin, nil)
		require.NoError(t, err)

		env.setNow(base.Add(DefaultOTPTTL - time.Millisecond))
		ok, err := env.otp.Verify(ctx, admin.ID, domain.OTPPurposeLogin, code)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("invalid just after expiry", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(t, env.store, "b@example.com", "pw-b-123456", domain.RoleAdmin)

		env.setNow(base)
		code, _, err := env.otp.Issue(ctx, admin.ID, domain.OTPPurposeLogin, nil)
		require.NoError(t, err)

		env.setNow(base.Add(DefaultOTPTTL + time.Millisecond))
		ok, err := env.otp.Verify(ctx, admin.ID, domain.OTPPurposeLogin, code)
		require.NoError(t, err)
		require.False(t, ok)

		// The expired code is cleared as a side effect.
		got, err := env.store.Admins().GetAdminByID(ctx, admin.ID)
		require.NoError(t, err)
		require.Nil(t, got.OTPCode)
		require.Nil(t, got.OTPExpiry)
	})
}

func TestOTPSingleUse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := seedAdmin(t, env.store, "c@example.com", "pw-c-123456", domain.RoleAdmin)

	code, _, err := env.otp.Issue(ctx, admin.ID, domain.OTPPurposeLogin, nil)
	require.NoError(t, err)

	ok, err := env.otp.Verify(ctx, admin.ID, domain.OTPPurposeLogin, code)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = env.otp.Verify(ctx, admin.ID, domain.OTPPurposeLogin, code)
	require.NoError(t, err)
	require.False(t, ok, "a consumed code must never verify again")
}

func TestOTPPurposeBinding(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := seedAdmin(t, env.store, "d@example.com", "pw-d-123456", domain.RoleAdmin)

	code, _, err := env.otp.Issue(ctx, admin.ID, domain.OTPPurposeProfileUpdate, map[string]string{"name": "New Name"})
	require.NoError(t, err)

	ok, err := env.otp.Verify(ctx, admin.ID, domain.OTPPurposeLogin, code)
	require.NoError(t, err)
	require.False(t, ok, "a code must only verify for the purpose it was issued for")

	// Still consumable for the right purpose; the mismatch didn't burn it.
	ok, err = env.otp.Verify(ctx, admin.ID, domain.OTPPurposeProfileUpdate, code)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOTPReissueReplacesPrior(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := seedAdmin(t, env.store, "e@example.com", "pw-e-123456", domain.RoleAdmin)

	first, _, err := env.otp.Issue(ctx, admin.ID, domain.OTPPurposeLogin, nil)
	require.NoError(t, err)

	second, _, err := env.otp.Issue(ctx, admin.ID, domain.OTPPurposeLogin, nil)
	require.NoError(t, err)

	if first != second {
		ok, err := env.otp.Verify(ctx, admin.ID, domain.OTPPurposeLogin, first)
		require.NoError(t, err)
		require.False(t, ok, "a replaced code must not verify")
	}

	ok, err := env.otp.Verify(ctx, admin.ID, domain.OTPPurposeLogin, second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOTPVerifyUnknownAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	ok, err := env.otp.Verify(ctx, "01JUNKJUNKJUNKJUNKJUNKJUNK", domain.OTPPurposeLogin, "123456")
	require.NoError(t, err)
	require.False(t, ok)
}
