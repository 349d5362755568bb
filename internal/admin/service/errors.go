package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountLocked      = errors.New("account_locked")
	ErrAccountInactive    = errors.New("account_inactive")
	ErrInvalidOTP         = errors.New("invalid_or_expired_otp")
	ErrInvalidToken       = errors.New("invalid_or_expired_token")
	ErrTokenMismatch      = errors.New("token_mismatch")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrPermissionDenied   = errors.New("permission_denied")
	ErrDuplicateIdentity  = errors.New("duplicate_identity")
	ErrNotFound           = errors.New("not_found")
	ErrValidation         = errors.New("validation_error")
	ErrPasswordReuse      = errors.New("password_reuse")
	ErrOTPDelivery        = errors.New("otp_delivery_failed")
)

// AccountLockedError carries the lockout deadline so handlers can render a
// human-readable remaining-time estimate. It matches ErrAccountLocked under
// errors.Is.
type AccountLockedError struct {
	Until time.Time
	Now   time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %s", e.Remaining().Round(time.Minute))
}

func (e *AccountLockedError) Is(target error) bool { return target == ErrAccountLocked }

// Remaining returns the time left on the lockout, never negative.
func (e *AccountLockedError) Remaining() time.Duration {
	d := e.Until.Sub(e.Now)
	if d < 0 {
		return 0
	}
	return d
}
