package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/labourhub/adminauth/pkg/cryptox"

	"github.com/labourhub/adminauth/internal/admin/domain"
	"github.com/labourhub/adminauth/internal/admin/store"
)

// DefaultOTPTTL is how long an issued one-time code stays valid.
const DefaultOTPTTL = 10 * time.Minute

// OTPService issues and verifies the short-lived numeric codes used to gate
// logins and sensitive profile changes. Each admin holds at most one live
// code; issuing a new one replaces whatever came before.
type OTPService struct {
	Store store.Store

	// TTL defaults to DefaultOTPTTL when zero.
	TTL time.Duration

	// Now is overridable for expiry boundary tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *OTPService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *OTPService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultOTPTTL
}

// Issue generates a fresh code for the admin, binds it to a purpose, and
// stages any pending changes alongside it. The returned code is only ever
// handed to the delivery channel, never to the requesting client.
func (s *OTPService) Issue(ctx context.Context, adminID string, purpose domain.OTPPurpose, pending map[string]string) (string, time.Duration, error) {
	code, err := cryptox.GenerateOTP()
	if err != nil {
		return "", 0, err
	}

	expiry := s.now().Add(s.ttl()).UTC()
	if err := s.Store.Admins().SetOTP(ctx, adminID, code, expiry, purpose, pending); err != nil {
		return "", 0, err
	}
	return code, s.ttl(), nil
}

// Verify checks a submitted code against the admin's stored one. It fails
// closed: a missing code, a purpose mismatch, an expired code, or a value
// mismatch all yield false. A successful match consumes the code so it can
// never be replayed.
func (s *OTPService) Verify(ctx context.Context, adminID string, purpose domain.OTPPurpose, submitted string) (bool, error) {
	admin, err := s.Store.Admins().GetAdminByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if admin.OTPCode == nil || admin.OTPExpiry == nil {
		return false, nil
	}
	if admin.OTPPurpose != purpose {
		return false, nil
	}
	if s.now().After(*admin.OTPExpiry) {
		// Stale codes are cleared eagerly rather than waiting for the
		// housekeeping sweep.
		if err := s.Store.Admins().ClearOTP(ctx, adminID); err != nil {
			return false, err
		}
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(*admin.OTPCode), []byte(submitted)) != 1 {
		return false, nil
	}

	if err := s.Store.Admins().ClearOTP(ctx, adminID); err != nil {
		return false, err
	}
	return true, nil
}
