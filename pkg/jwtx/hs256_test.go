package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner([]byte(strings.Repeat("s", 32)), "adminauth-test")
	require.NoError(t, err)
	return s
}

func TestNewSignerRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewSigner([]byte("too short"), "adminauth-test")
	require.Error(t, err)
}

func TestSignVerifyRoundtrip(t *testing.T) {
	t.Parallel()
	s := newSigner(t)

	meta := ClientMeta{IP: "203.0.113.7", UserAgent: "go-test", Device: "cli"}
	claims := NewAccessClaims("admin-1", "admin", "sid-1", meta, time.Minute, s.Issuer(), time.Now())

	raw, err := s.Sign(claims)
	require.NoError(t, err)

	got, err := s.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "admin-1", got.Subject)
	require.Equal(t, "admin", got.Role)
	require.Equal(t, "sid-1", got.SID)
	require.Equal(t, KindAccess, got.Kind)
	require.Equal(t, meta.IP, got.IP)
	require.NotEmpty(t, got.ID, "jti must be set")
}

func TestVerifyKindBindsTokenKind(t *testing.T) {
	t.Parallel()
	s := newSigner(t)

	access, err := s.Sign(NewAccessClaims("admin-1", "admin", "sid-1", ClientMeta{}, time.Minute, s.Issuer(), time.Now()))
	require.NoError(t, err)
	refresh, err := s.Sign(NewRefreshClaims("admin-1", "admin", "sid-1", ClientMeta{}, time.Minute, s.Issuer(), time.Now()))
	require.NoError(t, err)

	_, err = s.VerifyKind(access, KindAccess)
	require.NoError(t, err)
	_, err = s.VerifyKind(refresh, KindRefresh)
	require.NoError(t, err)

	_, err = s.VerifyKind(access, KindRefresh)
	require.ErrorIs(t, err, ErrKind)
	_, err = s.VerifyKind(refresh, KindAccess)
	require.ErrorIs(t, err, ErrKind)
}

func TestVerifyRejectsForeignAndBrokenTokens(t *testing.T) {
	t.Parallel()
	s := newSigner(t)

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Verify("not.a.token")
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewSigner([]byte(strings.Repeat("x", 32)), "adminauth-test")
		require.NoError(t, err)
		raw, err := other.Sign(NewAccessClaims("admin-1", "admin", "", ClientMeta{}, time.Minute, other.Issuer(), time.Now()))
		require.NoError(t, err)

		_, err = s.Verify(raw)
		require.ErrorIs(t, err, ErrInvalidSig)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewSigner([]byte(strings.Repeat("s", 32)), "someone-else")
		require.NoError(t, err)
		raw, err := other.Sign(NewAccessClaims("admin-1", "admin", "", ClientMeta{}, time.Minute, other.Issuer(), time.Now()))
		require.NoError(t, err)

		_, err = s.Verify(raw)
		require.ErrorIs(t, err, ErrIssuer)
	})

	t.Run("expired", func(t *testing.T) {
		raw, err := s.Sign(NewAccessClaims("admin-1", "admin", "", ClientMeta{}, time.Minute, s.Issuer(), time.Now().Add(-time.Hour)))
		require.NoError(t, err)

		_, err = s.Verify(raw)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("tampered payload", func(t *testing.T) {
		raw, err := s.Sign(NewAccessClaims("admin-1", "admin", "", ClientMeta{}, time.Minute, s.Issuer(), time.Now()))
		require.NoError(t, err)

		parts := strings.Split(raw, ".")
		require.Len(t, parts, 3)
		parts[1] = strings.Repeat("A", len(parts[1]))
		_, err = s.Verify(strings.Join(parts, "."))
		require.Error(t, err)
	})
}
