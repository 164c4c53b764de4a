package auth

import "fmt"

// XSRFAuth implements the Handler interface for the platform's anti-forgery cookie
type XSRFAuth struct {
	CookieName string // Cookie holding the token (e.g. "XSRF-TOKEN")
}

// NewXSRFAuth creates a new anti-forgery handler
func NewXSRFAuth(cookieName string) *XSRFAuth {
	return &XSRFAuth{
		CookieName: cookieName,
	}
}

// Token reads the cookie value
func (x *XSRFAuth) Token(src Sources) string {
	return src.cookieValue(x.CookieName)
}

// Credential echoes the cookie back in the x-xsrf-token header
func (x *XSRFAuth) Credential(token string) Credential {
	return Credential{Header: HeaderXSRFToken, Value: token}
}

// String returns a string representation of this auth method for testing
func (x *XSRFAuth) String() string {
	return fmt.Sprintf("XSRFAuth(cookie: %s)", x.CookieName)
}
