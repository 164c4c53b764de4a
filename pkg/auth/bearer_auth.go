package auth

import "fmt"

// BearerAuth implements the Handler interface for bearer tokens held in the Credential Store
type BearerAuth struct {
	Key string // Credential Store key of the token
}

// NewBearerAuth creates a new bearer token handler
func NewBearerAuth(key string) *BearerAuth {
	return &BearerAuth{
		Key: key,
	}
}

// Token reads the stored token
func (b *BearerAuth) Token(src Sources) string {
	return src.storeValue(b.Key)
}

// Credential formats the Authorization header; an absent token still yields the prefix
func (b *BearerAuth) Credential(token string) Credential {
	return Credential{Header: HeaderAuthorization, Value: BearerPrefix + token}
}

// String returns a string representation of this auth method for testing
func (b *BearerAuth) String() string {
	return fmt.Sprintf("BearerAuth(key: %s)", b.Key)
}
