// Package rest assembles descriptors for REST and multipart calls.
package rest

import (
	"context"
	"net/http"

	"github.com/saturnines/storefront-dispatch/pkg/auth"
	"github.com/saturnines/storefront-dispatch/pkg/encoding"
	"github.com/saturnines/storefront-dispatch/pkg/target"
	"github.com/saturnines/storefront-dispatch/pkg/transport"
)

// CredentialResolver supplies the credential header for a target
type CredentialResolver interface {
	Resolve(ctx context.Context, t target.Target) (auth.Credential, error)
}

// Request is what an operation contributes to the descriptor.
// Body is already encoded; Multipart marks a form upload.
type Request struct {
	Target          target.Target
	Path            string
	Method          string
	Body            []byte
	Multipart       bool
	FormContentType string
}

// Options is the caller's partial override.
type Options struct {
	Headers map[string]string
	Method  string
}

// Builder builds REST request descriptors.
type Builder struct {
	B2BBaseURL string
	Resolver   CredentialResolver
}

// NewBuilder constructs a Builder.
func NewBuilder(b2bBaseURL string, resolver CredentialResolver) *Builder {
	return &Builder{
		B2BBaseURL: b2bBaseURL,
		Resolver:   resolver,
	}
}

// Build creates a descriptor. Headers merge in a fixed order:
// defaults, then caller headers, then the credential, so the credential always wins.
func (b *Builder) Build(ctx context.Context, req Request, opts Options) (*transport.Descriptor, error) {
	url := req.Path
	if req.Target == target.B2BRest {
		url = transport.JoinURL(b.B2BBaseURL, req.Path)
	}

	method := req.Method
	if opts.Method != "" {
		method = opts.Method
	}
	if method == "" {
		method = http.MethodGet
	}

	cred, err := b.Resolver.Resolve(ctx, req.Target)
	if err != nil {
		return nil, err
	}

	headers := transport.MergeHeaders(
		defaultHeaders(req.Multipart),
		opts.Headers,
		map[string]string{cred.Header: cred.Value},
	)

	return &transport.Descriptor{
		URL:             url,
		Method:          method,
		Headers:         headers,
		Body:            req.Body,
		FormContentType: req.FormContentType,
	}, nil
}

// defaultHeaders leaves content-type unset for multipart so the boundary travels separately
func defaultHeaders(multipart bool) map[string]string {
	if multipart {
		return map[string]string{}
	}
	return map[string]string{transport.HeaderContentType: encoding.ContentTypeJSON}
}
