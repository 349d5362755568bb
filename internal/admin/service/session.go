package service

import (
	"context"
	"errors"
	"time"

	"github.com/labourhub/adminauth/pkg/cryptox"
	"github.com/labourhub/adminauth/pkg/idx"
	"github.com/labourhub/adminauth/pkg/jwtx"

	"github.com/labourhub/adminauth/internal/admin/domain"
	"github.com/labourhub/adminauth/internal/admin/store"
)

// SessionService mints token pairs and enforces the single-session rule.
// Every login overwrites the identity's stored token, so only the most
// recently issued access token ever validates; older devices are cut off
// without any revocation list.
type SessionService struct {
	Store  store.Store
	Signer *jwtx.Signer

	// AccessTTL and RefreshTTL default to the jwtx package defaults when zero.
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is overridable for expiry boundary tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Issue mints a new access/refresh pair for the admin and persists it as the
// identity's one live session. The previous session, if any, is overwritten
// unconditionally.
func (s *SessionService) Issue(ctx context.Context, admin domain.Admin, meta jwtx.ClientMeta) (*domain.TokenPair, error) {
	return s.issueWithSID(ctx, admin, meta, idx.New().String())
}

func (s *SessionService) issueWithSID(ctx context.Context, admin domain.Admin, meta jwtx.ClientMeta, sid string) (*domain.TokenPair, error) {
	now := s.now().UTC()

	access, err := s.Signer.Sign(jwtx.NewAccessClaims(
		admin.ID, string(admin.Role), sid, meta, s.accessTTL(), s.Signer.Issuer(), now,
	))
	if err != nil {
		return nil, err
	}

	refresh, err := s.Signer.Sign(jwtx.NewRefreshClaims(
		admin.ID, string(admin.Role), sid, meta, s.refreshTTL(), s.Signer.Issuer(), now,
	))
	if err != nil {
		return nil, err
	}

	expiry := now.Add(s.accessTTL())
	if err := s.Store.Admins().SetSession(ctx, admin.ID, access, expiry, cryptox.FingerprintToken(refresh)); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL().Seconds()),
	}, nil
}

// Validate reports whether the presented token is the identity's current
// session token. The stored record is the arbiter: the token must match the
// stored one exactly, the stored expiry must be in the future, and the
// logged-in flag must be set. Signature validity alone is never enough.
func (s *SessionService) Validate(ctx context.Context, adminID, presented string) (bool, error) {
	admin, err := s.Store.Admins().GetAdminByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.validateAgainst(&admin, presented), nil
}

func (s *SessionService) validateAgainst(admin *domain.Admin, presented string) bool {
	if !admin.IsLoggedIn || admin.CurrentToken == nil || admin.TokenExpiry == nil {
		return false
	}
	if *admin.CurrentToken != presented {
		return false
	}
	return admin.TokenExpiry.After(s.now())
}

// Resolve authenticates a bearer token end to end: signature and claims
// first, then the stored session record. It returns the admin on success so
// the caller doesn't load it twice.
func (s *SessionService) Resolve(ctx context.Context, presented string) (domain.Admin, error) {
	claims, err := s.Signer.VerifyKind(presented, jwtx.KindAccess)
	if err != nil {
		return domain.Admin{}, ErrInvalidToken
	}

	admin, err := s.Store.Admins().GetAdminByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Admin{}, ErrInvalidToken
		}
		return domain.Admin{}, err
	}

	if !admin.Active {
		return domain.Admin{}, ErrAccountInactive
	}
	if !s.validateAgainst(&admin, presented) {
		// Signed fine but superseded or expired in the store: a newer
		// login has claimed the single session slot.
		return domain.Admin{}, ErrTokenMismatch
	}
	return admin, nil
}

// Refresh rotates a session from a presented refresh token. The stored
// fingerprint must match; a rotated-out refresh token is rejected even when
// its signature is still valid. On success both tokens are replaced.
func (s *SessionService) Refresh(ctx context.Context, presented string, meta jwtx.ClientMeta) (domain.Admin, *domain.TokenPair, error) {
	claims, err := s.Signer.VerifyKind(presented, jwtx.KindRefresh)
	if err != nil {
		return domain.Admin{}, nil, ErrInvalidRefresh
	}

	admin, err := s.Store.Admins().GetAdminByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Admin{}, nil, ErrInvalidRefresh
		}
		return domain.Admin{}, nil, err
	}

	if !admin.Active {
		return domain.Admin{}, nil, ErrAccountInactive
	}
	if admin.RefreshTokenHash == nil || *admin.RefreshTokenHash != cryptox.FingerprintToken(presented) {
		return domain.Admin{}, nil, ErrInvalidRefresh
	}

	// Keep the session ID stable across refreshes so audit entries from the
	// whole session correlate.
	pair, err := s.issueWithSID(ctx, admin, meta, claims.SID)
	if err != nil {
		return domain.Admin{}, nil, err
	}
	return admin, pair, nil
}

// Clear logs the admin out by nulling the stored session fields. Validation
// of any outstanding token fails from this point on.
func (s *SessionService) Clear(ctx context.Context, adminID string) error {
	return s.Store.Admins().ClearSession(ctx, adminID)
}

// TouchActivity refreshes the last-activity timestamp for the admin.
func (s *SessionService) TouchActivity(ctx context.Context, adminID string) error {
	return s.Store.Admins().TouchActivity(ctx, adminID, s.now().UTC())
}
