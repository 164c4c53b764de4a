package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenInfo is what can be read from a stored JWT without verifying it.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that is before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}

// InspectToken parses raw as a JWT without checking its signature.
// Opaque tokens return ok=false; the backend stays the authority on validity.
func InspectToken(raw string) (TokenInfo, bool) {
	if raw == "" {
		return TokenInfo{}, false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}, false
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, true
}
