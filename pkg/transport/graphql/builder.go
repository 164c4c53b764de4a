// Package graphql wraps GraphQL operations in a POST envelope.
package graphql

import (
	"context"
	"fmt"
	"net/http"

	"github.com/saturnines/storefront-dispatch/pkg/auth"
	"github.com/saturnines/storefront-dispatch/pkg/encoding"
	"github.com/saturnines/storefront-dispatch/pkg/errors"
	"github.com/saturnines/storefront-dispatch/pkg/target"
	"github.com/saturnines/storefront-dispatch/pkg/transport"
)

// Path is appended to a base URL to reach its GraphQL endpoint
const Path = "/graphql"

// BearerResolver supplies the Authorization credential for a GraphQL target
type BearerResolver interface {
	ResolveBearer(ctx context.Context, t target.Target) (auth.Credential, error)
}

// Payload is the JSON body of a GraphQL request.
type Payload struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Builder constructs GraphQL request descriptors.
type Builder struct {
	B2BBaseURL      string
	PlatformBaseURL string
	Resolver        BearerResolver
}

// NewBuilder sets up a GraphQL Builder.
func NewBuilder(b2bBaseURL, platformBaseURL string, resolver BearerResolver) *Builder {
	return &Builder{
		B2BBaseURL:      b2bBaseURL,
		PlatformBaseURL: platformBaseURL,
		Resolver:        resolver,
	}
}

// Endpoint picks the GraphQL URL for t. Both platform targets share one endpoint;
// only the token they send differs.
func (b *Builder) Endpoint(t target.Target) string {
	if t == target.B2BGraphql {
		return transport.JoinURL(b.B2BBaseURL, Path)
	}
	return transport.JoinURL(b.PlatformBaseURL, Path)
}

// Build creates a POST descriptor. extraHeaders are merged over the JSON
// content-type and under the credential.
func (b *Builder) Build(ctx context.Context, t target.Target, payload Payload, extraHeaders map[string]string) (*transport.Descriptor, error) {
	if !t.IsGraphQL() {
		return nil, errors.WrapError(
			fmt.Errorf("target %s is not a GraphQL target", t),
			errors.ErrConfiguration,
			"build graphql request",
		)
	}

	body, err := encoding.EncodeBody(payload)
	if err != nil {
		return nil, err
	}

	cred, err := b.Resolver.ResolveBearer(ctx, t)
	if err != nil {
		return nil, err
	}

	headers := transport.MergeHeaders(
		map[string]string{transport.HeaderContentType: encoding.ContentTypeJSON},
		extraHeaders,
		map[string]string{cred.Header: cred.Value},
	)

	return &transport.Descriptor{
		URL:     b.Endpoint(t),
		Method:  http.MethodPost,
		Headers: headers,
		Body:    body,
	}, nil
}
