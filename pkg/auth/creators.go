package auth

import (
	"github.com/saturnines/storefront-dispatch/pkg/config"
	"github.com/saturnines/storefront-dispatch/pkg/target"
)

// defaultHandler maps a target to the credential it has always used.
// BCRest and the B2B targets never share a token with the platform GraphQL targets.
func defaultHandler(t target.Target, keys config.Credentials) Handler {
	switch t {
	case target.BCRest:
		return NewXSRFAuth(keys.XSRFCookie)
	case target.B2BRest, target.B2BGraphql:
		return NewHeaderTokenAuth(HeaderAuthToken, keys.B2BTokenKey)
	case target.BCGraphql:
		return NewBearerAuth(keys.BCTokenKey)
	case target.BCProxyGraphql:
		return NewBearerAuth(keys.ProxyTokenKey)
	}
	return nil
}
