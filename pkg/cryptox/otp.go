package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPDigits is the fixed length of generated one-time codes.
const OTPDigits = 6

var otpSpace = big.NewInt(1_000_000)

// GenerateOTP returns a 6-digit numeric one-time code drawn from a
// cryptographically secure random source. The code space is 000000-999999
// and the result is left-zero-padded to OTPDigits characters.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
