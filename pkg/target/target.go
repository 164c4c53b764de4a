// Package target names the backend systems a request can be addressed to.
package target

import (
	"fmt"
	"strings"
)

// Target identifies which backend and protocol a request addresses.
// The zero value is not a valid target; use one of the exported values.
type Target struct {
	name string
}

var (
	// B2BRest is the first-party B2B REST service.
	B2BRest = Target{"B2BRest"}
	// BCRest is the storefront platform's REST API.
	BCRest = Target{"BCRest"}
	// B2BGraphql is the first-party B2B GraphQL endpoint.
	B2BGraphql = Target{"B2BGraphql"}
	// BCGraphql is the storefront platform's GraphQL endpoint.
	BCGraphql = Target{"BCGraphql"}
	// BCProxyGraphql is the platform GraphQL endpoint reached with the proxy token.
	BCProxyGraphql = Target{"BCProxyGraphql"}
)

// All lists every target in declaration order.
func All() []Target {
	return []Target{B2BRest, BCRest, B2BGraphql, BCGraphql, BCProxyGraphql}
}

func (t Target) String() string {
	if t.name == "" {
		return "invalid"
	}
	return t.name
}

// Valid reports whether t is one of the declared targets.
func (t Target) Valid() bool {
	return t.name != ""
}

// IsGraphQL reports whether requests to t use the GraphQL envelope.
func (t Target) IsGraphQL() bool {
	switch t {
	case B2BGraphql, BCGraphql, BCProxyGraphql:
		return true
	}
	return false
}

// Parse accepts the canonical name ("B2BRest") or its kebab form ("b2b-rest"), case-insensitively.
func Parse(s string) (Target, error) {
	norm := strings.ToLower(strings.ReplaceAll(s, "-", ""))
	for _, t := range All() {
		if strings.ToLower(t.name) == norm {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("unknown backend target %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Target) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid backend target")
	}
	return []byte(t.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Target) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
