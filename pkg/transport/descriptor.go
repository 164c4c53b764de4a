// Package transport defines the transport-ready request shape and executes it over HTTP.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/saturnines/storefront-dispatch/pkg/target"
)

// HeaderContentType is the lower-case content-type key used in descriptor headers.
const HeaderContentType = "content-type"

// JoinURL prefixes path with a base URL. Any path on the base is kept, so
// "https://shop.example.com/store" + "/graphql" is "https://shop.example.com/store/graphql".
func JoinURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	if path == "" {
		return base
	}
	if base == "" {
		return path
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// Descriptor is a fully assembled request: URL, method, headers and encoded body.
// Headers hold exactly one value per key. Multipart requests carry no content-type
// header; FormContentType tells the Transport which boundary to send instead.
type Descriptor struct {
	URL             string
	Method          string
	Headers         map[string]string
	Body            []byte
	FormContentType string
}

// Header returns the value stored under key, compared case-insensitively.
func (d Descriptor) Header(key string) (string, bool) {
	for k, v := range d.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s", d.Method, d.URL)
}

// Result is the parsed payload of a settled request.
// For GraphQL targets Data is the "data" member of the response envelope.
type Result struct {
	StatusCode int
	Header     http.Header
	Data       json.RawMessage
}

// Decode unmarshals Data into v.
func (r *Result) Decode(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// Transport executes descriptors. It owns timeouts, failure classification and
// error reporting; suppressErrors turns the default reporting off for one call.
type Transport interface {
	Execute(ctx context.Context, d *Descriptor, t target.Target, suppressErrors bool) (*Result, error)
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, d *Descriptor, t target.Target, suppressErrors bool) (*Result, error)

// Execute implements Transport
func (f TransportFunc) Execute(ctx context.Context, d *Descriptor, t target.Target, suppressErrors bool) (*Result, error) {
	return f(ctx, d, t, suppressErrors)
}
