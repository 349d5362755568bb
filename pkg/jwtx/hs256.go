package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrKind        = errors.New("jwtx: unexpected token kind")
)

// Signer signs and verifies HS256 tokens with a shared secret. Symmetric
// signing is enough here: the same service both mints and verifies, and the
// store remains the final arbiter of token validity regardless of signature.
type Signer struct {
	secret []byte
	issuer string
}

// NewSigner builds a Signer from the raw secret bytes.
func NewSigner(secret []byte, issuer string) (*Signer, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwtx: secret must be at least 32 bytes, got %d", len(secret))
	}
	return &Signer{secret: secret, issuer: issuer}, nil
}

// Issuer returns the issuer stamped into minted tokens.
func (s *Signer) Issuer() string { return s.issuer }

// Sign produces a compact HS256 JWT for the given claims.
func (s *Signer) Sign(c Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

// Verify parses and validates a compact token, returning its claims.
// Signature, expiry, not-before and issuer are all enforced.
func (s *Signer) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Claims{}, mapJWTError(err)
	}
	return claims, nil
}

// VerifyKind is Verify plus a check that the token is of the expected kind
// (access vs refresh).
func (s *Signer) VerifyKind(raw, kind string) (Claims, error) {
	claims, err := s.Verify(raw)
	if err != nil {
		return Claims{}, err
	}
	if claims.Kind != kind {
		return Claims{}, ErrKind
	}
	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrMalformed
	}
}
