package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labourhub/adminauth/pkg/cryptox"
	"github.com/labourhub/adminauth/pkg/jwtx"

	"github.com/labourhub/adminauth/internal/admin/domain"
	"github.com/labourhub/adminauth/internal/admin/store"
)

// Lockout policy defaults.
const (
	DefaultLockThreshold = 5
	DefaultLockDuration  = 30 * time.Minute
)

// AuthService owns the login flows: password login, OTP login and logout.
// It drives the lockout counter and writes the audit entries the flows
// produce.
type AuthService struct {
	Store    store.Store
	Sessions *SessionService
	OTP      *OTPService
	Audit    *AuditService
	Notify   *NotifyService
	Notifier Notifier

	// LockThreshold and LockDuration default to the package constants when
	// zero.
	LockThreshold int
	LockDuration  time.Duration

	// Now is overridable for lockout boundary tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) lockThreshold() int {
	if s.LockThreshold > 0 {
		return s.LockThreshold
	}
	return DefaultLockThreshold
}

func (s *AuthService) lockDuration() time.Duration {
	if s.LockDuration > 0 {
		return s.LockDuration
	}
	return DefaultLockDuration
}

// Login authenticates an email/password pair and, on success, issues a token
// pair that replaces any existing session for the identity. A wrong password
// and an unknown email produce the same error so the response never confirms
// whether an account exists.
func (s *AuthService) Login(ctx context.Context, email, password string, meta jwtx.ClientMeta) (domain.Admin, *domain.TokenPair, error) {
	admin, err := s.Store.Admins().GetAdminByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Admin{}, nil, ErrInvalidCredentials
		}
		return domain.Admin{}, nil, err
	}

	if !admin.Active {
		return domain.Admin{}, nil, ErrAccountInactive
	}

	now := s.now()
	if admin.Locked(now) {
		s.Audit.record(ctx, admin.ID, domain.ActionFailedLoginAttempt,
			"login attempt while account locked",
			domain.SeverityHigh, domain.StatusFailed, meta, nil)
		return domain.Admin{}, nil, &AccountLockedError{Until: *admin.LockUntil, Now: now}
	}

	if err := cryptox.VerifyPassword(password, admin.PasswordHash); err != nil {
		return domain.Admin{}, nil, s.recordFailure(ctx, &admin, meta)
	}

	if err := s.Store.Admins().ResetLoginFailures(ctx, admin.ID); err != nil {
		return domain.Admin{}, nil, err
	}

	pair, err := s.Sessions.Issue(ctx, admin, meta)
	if err != nil {
		return domain.Admin{}, nil, err
	}

	s.Audit.record(ctx, admin.ID, domain.ActionLogin, "password login",
		domain.SeverityLow, domain.StatusSuccess, meta, nil)

	return admin, pair, nil
}

// recordFailure bumps the failed-attempt counter, locks the account when the
// threshold is reached, and writes the corresponding audit entries. The
// returned error is what the caller should surface.
func (s *AuthService) recordFailure(ctx context.Context, admin *domain.Admin, meta jwtx.ClientMeta) error {
	now := s.now()
	failed := admin.FailedLogins + 1

	var lockUntil *time.Time
	if failed >= s.lockThreshold() {
		t := now.Add(s.lockDuration()).UTC()
		lockUntil = &t
	}

	if err := s.Store.Admins().SetLoginFailure(ctx, admin.ID, failed, lockUntil); err != nil {
		return err
	}

	s.Audit.record(ctx, admin.ID, domain.ActionFailedLoginAttempt,
		fmt.Sprintf("failed login attempt %d of %d", failed, s.lockThreshold()),
		domain.SeverityMedium, domain.StatusFailed, meta,
		map[string]string{"failed_attempts": strconv.Itoa(failed)})

	if lockUntil != nil {
		s.Audit.record(ctx, admin.ID, domain.ActionAccountLocked,
			fmt.Sprintf("account locked for %s after %d failed attempts", s.lockDuration(), failed),
			domain.SeverityHigh, domain.StatusSuccess, meta, nil)
		return &AccountLockedError{Until: *lockUntil, Now: now}
	}
	return ErrInvalidCredentials
}

// SendLoginOTP issues and delivers a login code for the identity reached by
// email or phone. An unknown identifier gets the same error as bad
// credentials to resist enumeration. Delivery failure surfaces: a code the
// admin never received is worse than a retry.
func (s *AuthService) SendLoginOTP(ctx context.Context, identifier string, meta jwtx.ClientMeta) (time.Duration, error) {
	admin, err := s.resolveIdentifier(ctx, identifier)
	if err != nil {
		return 0, err
	}

	if !admin.Active {
		return 0, ErrAccountInactive
	}
	now := s.now()
	if admin.Locked(now) {
		return 0, &AccountLockedError{Until: *admin.LockUntil, Now: now}
	}

	code, ttl, err := s.OTP.Issue(ctx, admin.ID, domain.OTPPurposeLogin, nil)
	if err != nil {
		return 0, err
	}

	if err := s.deliverOTP(ctx, admin, code, "login verification"); err != nil {
		// Don't leave a live code behind for a message nobody received.
		_ = s.Store.Admins().ClearOTP(ctx, admin.ID)
		s.Audit.record(ctx, admin.ID, domain.ActionOTPSent, "login code delivery failed",
			domain.SeverityMedium, domain.StatusFailed, meta, nil)
		return 0, ErrOTPDelivery
	}

	s.Audit.record(ctx, admin.ID, domain.ActionOTPSent, "login code sent",
		domain.SeverityLow, domain.StatusSuccess, meta, nil)
	return ttl, nil
}

// VerifyLoginOTP checks a submitted login code and, on success, issues a
// token pair exactly as a password login would.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, identifier, code string, meta jwtx.ClientMeta) (domain.Admin, *domain.TokenPair, error) {
	admin, err := s.resolveIdentifier(ctx, identifier)
	if err != nil {
		return domain.Admin{}, nil, err
	}

	if !admin.Active {
		return domain.Admin{}, nil, ErrAccountInactive
	}
	now := s.now()
	if admin.Locked(now) {
		return domain.Admin{}, nil, &AccountLockedError{Until: *admin.LockUntil, Now: now}
	}

	ok, err := s.OTP.Verify(ctx, admin.ID, domain.OTPPurposeLogin, code)
	if err != nil {
		return domain.Admin{}, nil, err
	}
	if !ok {
		s.Audit.record(ctx, admin.ID, domain.ActionOTPVerified, "invalid or expired login code",
			domain.SeverityMedium, domain.StatusFailed, meta, nil)
		return domain.Admin{}, nil, ErrInvalidOTP
	}

	if err := s.Store.Admins().ResetLoginFailures(ctx, admin.ID); err != nil {
		return domain.Admin{}, nil, err
	}

	pair, err := s.Sessions.Issue(ctx, admin, meta)
	if err != nil {
		return domain.Admin{}, nil, err
	}

	s.Audit.record(ctx, admin.ID, domain.ActionLogin, "otp login",
		domain.SeverityLow, domain.StatusSuccess, meta, map[string]string{"method": "otp"})

	return admin, pair, nil
}

// Refresh rotates a session from a presented refresh token and records it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta jwtx.ClientMeta) (domain.Admin, *domain.TokenPair, error) {
	admin, pair, err := s.Sessions.Refresh(ctx, refreshToken, meta)
	if err != nil {
		return domain.Admin{}, nil, err
	}

	s.Audit.record(ctx, admin.ID, domain.ActionTokenRefresh, "token pair rotated",
		domain.SeverityLow, domain.StatusSuccess, meta, nil)
	return admin, pair, nil
}

// Logout clears the stored session so any outstanding tokens stop
// validating immediately.
func (s *AuthService) Logout(ctx context.Context, adminID string, meta jwtx.ClientMeta) error {
	if err := s.Sessions.Clear(ctx, adminID); err != nil {
		return err
	}
	s.Audit.record(ctx, adminID, domain.ActionLogout, "logout",
		domain.SeverityLow, domain.StatusSuccess, meta, nil)
	return nil
}

// ForceLogoutAll clears every admin session at once, typically in response
// to a suspected credential compromise. The caller must already be verified
// as top-role.
func (s *AuthService) ForceLogoutAll(ctx context.Context, actorID string, meta jwtx.ClientMeta) (int64, error) {
	cleared, err := s.Store.Admins().ClearAllSessions(ctx)
	if err != nil {
		return 0, err
	}

	s.Audit.record(ctx, actorID, domain.ActionForceLogout,
		fmt.Sprintf("forced logout of all admin sessions (%d cleared)", cleared),
		domain.SeverityHigh, domain.StatusSuccess, meta,
		map[string]string{"sessions_cleared": strconv.FormatInt(cleared, 10)})

	if s.Notify != nil {
		_, _ = s.Notify.NotifyOthers(ctx, actorID, "All admin sessions revoked",
			"All admin sessions were terminated by a security action. Please sign in again.", meta)
	}
	return cleared, nil
}

// resolveIdentifier looks up an admin by email when the identifier contains
// an "@", otherwise by phone. Unknown identifiers map to the generic
// credentials error.
func (s *AuthService) resolveIdentifier(ctx context.Context, identifier string) (domain.Admin, error) {
	var (
		admin domain.Admin
		err   error
	)
	if strings.Contains(identifier, "@") {
		admin, err = s.Store.Admins().GetAdminByEmail(ctx, normalizeEmail(identifier))
	} else {
		admin, err = s.Store.Admins().GetAdminByPhone(ctx, strings.TrimSpace(identifier))
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Admin{}, ErrInvalidCredentials
		}
		return domain.Admin{}, err
	}
	return admin, nil
}

// deliverOTP sends the code over email, with a best-effort SMS copy when a
// phone number is on file.
func (s *AuthService) deliverOTP(ctx context.Context, admin domain.Admin, code, reason string) error {
	err := s.Notifier.SendEmail(ctx, EmailMessage{
		To:      admin.Email,
		Subject: "Your admin verification code",
		Body:    fmt.Sprintf("Your code for %s is %s. It expires in %s.", reason, code, s.OTP.ttl()),
	})
	if err != nil {
		return err
	}

	if admin.Phone != "" {
		// Email is the channel of record; the SMS copy failing is not a
		// delivery failure.
		_ = s.Notifier.SendSMS(ctx, SMSMessage{
			To:   admin.Phone,
			Body: fmt.Sprintf("Admin verification code: %s", code),
		})
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
