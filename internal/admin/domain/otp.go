package domain

import "errors"

// OTPPurpose binds a one-time code to the operation it authorizes. A code
// issued for one purpose never verifies for another.
type OTPPurpose string

const (
	OTPPurposeNone           OTPPurpose = "none"
	OTPPurposeLogin          OTPPurpose = "login"
	OTPPurposeProfileUpdate  OTPPurpose = "profile_update"
	OTPPurposePasswordChange OTPPurpose = "password_change"
)

var ErrUnknownOTPPurpose = errors.New("domain: unknown otp purpose")

// ParseOTPPurpose validates a purpose string at the boundary.
func ParseOTPPurpose(s string) (OTPPurpose, error) {
	switch OTPPurpose(s) {
	case OTPPurposeLogin, OTPPurposeProfileUpdate, OTPPurposePasswordChange:
		return OTPPurpose(s), nil
	}
	return "", ErrUnknownOTPPurpose
}
