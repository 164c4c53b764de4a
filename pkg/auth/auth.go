package auth

import (
	"fmt"
)

// Header names a credential can be attached under.
const (
	HeaderAuthToken     = "authToken"
	HeaderAuthorization = "Authorization"
	HeaderXSRFToken     = "x-xsrf-token"

	// BearerPrefix keeps the double space the storefront backends have always received.
	BearerPrefix = "Bearer  "
)

// Credential is one header name/value pair proving identity to a backend.
// It is resolved per request and never retained by the dispatcher.
type Credential struct {
	Header string
	Value  string
}

// String never includes the token value
func (c Credential) String() string {
	return fmt.Sprintf("Credential(header: %s)", c.Header)
}

// Sources are the read-only places a Handler can pull a token from.
type Sources struct {
	Store   Store
	Cookies Cookies
}

func (s Sources) storeValue(key string) string {
	if s.Store == nil {
		return ""
	}
	return s.Store.Get(key)
}

func (s Sources) cookieValue(name string) string {
	if s.Cookies == nil {
		return ""
	}
	return s.Cookies.Cookie(name)
}

// Handler produces the credential for one backend target.
type Handler interface {
	// Token returns the raw stored token, before any header formatting.
	Token(src Sources) string
	// Credential formats a token read by Token as the target's header.
	Credential(token string) Credential
}

// HeaderTokenAuth sends a Credential Store token verbatim under a fixed header
type HeaderTokenAuth struct {
	HeaderName string // Header to attach under (e.g. "authToken")
	Key        string // Credential Store key
}

// NewHeaderTokenAuth creates a new header token handler
func NewHeaderTokenAuth(headerName, key string) *HeaderTokenAuth {
	return &HeaderTokenAuth{
		HeaderName: headerName,
		Key:        key,
	}
}

// Token reads the stored token
func (a *HeaderTokenAuth) Token(src Sources) string {
	return src.storeValue(a.Key)
}

// Credential returns the header pair; an empty token stays empty
func (a *HeaderTokenAuth) Credential(token string) Credential {
	return Credential{Header: a.HeaderName, Value: token}
}

// String returns a string representation of this auth method
func (a *HeaderTokenAuth) String() string {
	return fmt.Sprintf("HeaderTokenAuth(header: %s, key: %s)", a.HeaderName, a.Key)
}
