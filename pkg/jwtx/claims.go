package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants for the admin token lifecycle.
const (
	// DefaultAccessTokenTTL is the lifetime for admin access tokens.
	// Fixed at 30 minutes; the stored session record is overwritten on
	// every login so a shorter rolling TTL buys nothing here.
	DefaultAccessTokenTTL = 30 * time.Minute

	// DefaultRefreshTokenTTL is the lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 14 * 24 * time.Hour
)

// Token kinds carried in the "kind" claim so an access token can never be
// replayed as a refresh token or vice versa.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// ClientMeta is request-client metadata embedded in tokens for forensic
// correlation. It is audit context only, never a trust boundary.
type ClientMeta struct {
	IP        string
	UserAgent string
	Device    string
}

// Claims are the token claims used across the service.
type Claims struct {
	jwt.RegisteredClaims

	// Kind distinguishes access tokens from refresh tokens.
	Kind string `json:"kind"`

	// Role of the admin at issuance time ("super_admin", "admin", "moderator").
	Role string `json:"role,omitempty"`

	// SID is the session ID shared between an access/refresh pair.
	SID string `json:"sid,omitempty"`

	// Client metadata at issuance time.
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"ua,omitempty"`
	Device    string `json:"dev,omitempty"`
}

// NewAccessClaims builds claims for a short-lived access token.
func NewAccessClaims(
	subject, role, sid string,
	meta ClientMeta,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return newClaims(KindAccess, subject, role, sid, meta, ttl, issuer, now)
}

// NewRefreshClaims builds claims for a long-lived refresh token.
func NewRefreshClaims(
	subject, role, sid string,
	meta ClientMeta,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return newClaims(KindRefresh, subject, role, sid, meta, ttl, issuer, now)
}

func newClaims(
	kind, subject, role, sid string,
	meta ClientMeta,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Kind:      kind,
		Role:      role,
		SID:       sid,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Device:    meta.Device,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
