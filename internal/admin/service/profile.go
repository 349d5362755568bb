package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labourhub/adminauth/pkg/cryptox"
	"github.com/labourhub/adminauth/pkg/jwtx"

	"github.com/labourhub/adminauth/internal/admin/domain"
	"github.com/labourhub/adminauth/internal/admin/store"
)

// MinPasswordLength is the floor for new admin passwords.
const MinPasswordLength = 8

// ProfileUpdate carries the fields an admin may change on their own record.
// Empty fields are left untouched.
type ProfileUpdate struct {
	Name  string
	Email string
	Phone string
}

func (u ProfileUpdate) empty() bool {
	return u.Name == "" && u.Email == "" && u.Phone == ""
}

// ProfileService handles self-service profile and password changes. Both are
// two-phase: the first call stages the change and sends a code, the second
// call presents the code and commits.
type ProfileService struct {
	Store    store.Store
	OTP      *OTPService
	Audit    *AuditService
	Notify   *NotifyService
	Notifier Notifier

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// RequestProfileUpdate stages the requested changes against a fresh code and
// delivers the code. Nothing on the record changes yet.
func (s *ProfileService) RequestProfileUpdate(ctx context.Context, adminID string, upd ProfileUpdate, meta jwtx.ClientMeta) (time.Duration, error) {
	if upd.empty() {
		return 0, fmt.Errorf("%w: no profile fields to update", ErrValidation)
	}
	if upd.Email != "" && !strings.Contains(upd.Email, "@") {
		return 0, fmt.Errorf("%w: malformed email", ErrValidation)
	}

	admin, err := s.Store.Admins().GetAdminByID(ctx, adminID)
	if err != nil {
		return 0, mapStoreErr(err)
	}

	pending := map[string]string{}
	if upd.Name != "" {
		pending["name"] = upd.Name
	}
	if upd.Email != "" {
		pending["email"] = normalizeEmail(upd.Email)
	}
	if upd.Phone != "" {
		pending["phone"] = strings.TrimSpace(upd.Phone)
	}

	code, ttl, err := s.OTP.Issue(ctx, adminID, domain.OTPPurposeProfileUpdate, pending)
	if err != nil {
		return 0, err
	}

	if err := s.deliver(ctx, admin, code, "profile update"); err != nil {
		_ = s.Store.Admins().ClearOTP(ctx, adminID)
		return 0, ErrOTPDelivery
	}

	s.Audit.record(ctx, adminID, domain.ActionOTPSent, "profile update code sent",
		domain.SeverityLow, domain.StatusSuccess, meta, nil)
	return ttl, nil
}

// ConfirmProfileUpdate presents the code and applies the staged changes. The
// staged values win over anything resubmitted; what was verified is what is
// committed.
func (s *ProfileService) ConfirmProfileUpdate(ctx context.Context, adminID, code string, meta jwtx.ClientMeta) (domain.Admin, error) {
	admin, err := s.Store.Admins().GetAdminByID(ctx, adminID)
	if err != nil {
		return domain.Admin{}, mapStoreErr(err)
	}

	// Verify consumes the code and clears the staged changes with it, so
	// capture them first.
	pending := admin.PendingChanges

	ok, err := s.OTP.Verify(ctx, adminID, domain.OTPPurposeProfileUpdate, code)
	if err != nil {
		return domain.Admin{}, err
	}
	if !ok {
		s.Audit.record(ctx, adminID, domain.ActionProfileUpdate, "invalid or expired profile update code",
			domain.SeverityMedium, domain.StatusFailed, meta, nil)
		return domain.Admin{}, ErrInvalidOTP
	}

	name, email, phone := admin.Name, admin.Email, admin.Phone
	if v, ok := pending["name"]; ok {
		name = v
	}
	if v, ok := pending["email"]; ok {
		email = v
	}
	if v, ok := pending["phone"]; ok {
		phone = v
	}

	if err := s.Store.Admins().UpdateProfile(ctx, adminID, name, email, phone); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Admin{}, ErrDuplicateIdentity
		}
		return domain.Admin{}, err
	}

	s.Audit.record(ctx, adminID, domain.ActionProfileUpdate, "profile updated",
		domain.SeverityMedium, domain.StatusSuccess, meta, pending)

	if s.Notify != nil {
		_, _ = s.Notify.NotifyOthers(ctx, adminID, "Admin profile updated",
			fmt.Sprintf("Admin %s updated their profile details.", name), meta)
	}

	return s.Store.Admins().GetAdminByID(ctx, adminID)
}

// RequestPasswordChange verifies the current password, vets the new one
// against the reuse history, then sends a confirmation code. The new
// password is never staged; the confirm call must resubmit it.
func (s *ProfileService) RequestPasswordChange(ctx context.Context, adminID, currentPassword, newPassword string, meta jwtx.ClientMeta) (time.Duration, error) {
	admin, err := s.Store.Admins().GetAdminByID(ctx, adminID)
	if err != nil {
		return 0, mapStoreErr(err)
	}

	if err := s.vetPasswordChange(&admin, currentPassword, newPassword); err != nil {
		return 0, err
	}

	code, ttl, err := s.OTP.Issue(ctx, adminID, domain.OTPPurposePasswordChange, nil)
	if err != nil {
		return 0, err
	}

	if err := s.deliver(ctx, admin, code, "password change"); err != nil {
		_ = s.Store.Admins().ClearOTP(ctx, adminID)
		return 0, ErrOTPDelivery
	}

	s.Audit.record(ctx, adminID, domain.ActionOTPSent, "password change code sent",
		domain.SeverityLow, domain.StatusSuccess, meta, nil)
	return ttl, nil
}

// ConfirmPasswordChange presents the code with the resubmitted passwords and
// commits the change. The prior hash joins the bounded reuse history.
func (s *ProfileService) ConfirmPasswordChange(ctx context.Context, adminID, currentPassword, newPassword, code string, meta jwtx.ClientMeta) error {
	admin, err := s.Store.Admins().GetAdminByID(ctx, adminID)
	if err != nil {
		return mapStoreErr(err)
	}

	if err := s.vetPasswordChange(&admin, currentPassword, newPassword); err != nil {
		return err
	}

	ok, err := s.OTP.Verify(ctx, adminID, domain.OTPPurposePasswordChange, code)
	if err != nil {
		return err
	}
	if !ok {
		s.Audit.record(ctx, adminID, domain.ActionPasswordChange, "invalid or expired password change code",
			domain.SeverityMedium, domain.StatusFailed, meta, nil)
		return ErrInvalidOTP
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Store.Admins().UpdatePassword(ctx, adminID, newHash); err != nil {
		return err
	}

	s.Audit.record(ctx, adminID, domain.ActionPasswordChange, "password changed",
		domain.SeverityHigh, domain.StatusSuccess, meta, nil)

	if s.Notify != nil {
		_, _ = s.Notify.NotifyOthers(ctx, adminID, "Admin password changed",
			fmt.Sprintf("Admin %s changed their password.", admin.Name), meta)
	}
	return nil
}

// vetPasswordChange enforces the current-password check, the length floor
// and the no-reuse policy against the current hash plus the history.
func (s *ProfileService) vetPasswordChange(admin *domain.Admin, currentPassword, newPassword string) error {
	if err := cryptox.VerifyPassword(currentPassword, admin.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}

	if cryptox.VerifyPassword(newPassword, admin.PasswordHash) == nil {
		return ErrPasswordReuse
	}
	for _, prev := range admin.PasswordHistory {
		if cryptox.VerifyPassword(newPassword, prev) == nil {
			return ErrPasswordReuse
		}
	}
	return nil
}

func (s *ProfileService) deliver(ctx context.Context, admin domain.Admin, code, reason string) error {
	return s.Notifier.SendEmail(ctx, EmailMessage{
		To:      admin.Email,
		Subject: "Your admin verification code",
		Body:    fmt.Sprintf("Your code for %s is %s. It expires in %s.", reason, code, s.OTP.ttl()),
	})
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
