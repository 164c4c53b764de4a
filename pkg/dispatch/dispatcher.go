// Package dispatch is the single entry point for outbound storefront data requests.
// Every operation names its backend target, gets that target's credential, encodes
// its payload, and hands one descriptor to the Transport.
package dispatch

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saturnines/storefront-dispatch/pkg/auth"
	"github.com/saturnines/storefront-dispatch/pkg/config"
	"github.com/saturnines/storefront-dispatch/pkg/encoding"
	"github.com/saturnines/storefront-dispatch/pkg/logging"
	"github.com/saturnines/storefront-dispatch/pkg/target"
	"github.com/saturnines/storefront-dispatch/pkg/transport"
	"github.com/saturnines/storefront-dispatch/pkg/transport/graphql"
	"github.com/saturnines/storefront-dispatch/pkg/transport/rest"
)

// Config is the caller's optional override: extra headers and a method for GET-with-body calls.
type Config = rest.Options

// Dispatcher routes requests to the B2B service and the storefront platform.
// It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	rest      *rest.Builder
	graphql   *graphql.Builder
	transport transport.Transport
	logger    zerolog.Logger
}

// Option configures a Dispatcher
type Option func(*dispatcherOptions)

type dispatcherOptions struct {
	logger       zerolog.Logger
	resolverOpts []auth.ResolverOption
}

// WithLogger sets the fallback logger used when the context carries none
func WithLogger(l zerolog.Logger) Option {
	return func(o *dispatcherOptions) {
		o.logger = l
	}
}

// WithResolverOptions passes options through to the credential resolver
func WithResolverOptions(opts ...auth.ResolverOption) Option {
	return func(o *dispatcherOptions) {
		o.resolverOpts = append(o.resolverOpts, opts...)
	}
}

// New creates a Dispatcher. cfg should already have passed through config.Loader.
func New(cfg *config.Config, store auth.Store, cookies auth.Cookies, tr transport.Transport, opts ...Option) *Dispatcher {
	o := dispatcherOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	resolverOpts := append([]auth.ResolverOption{auth.WithLogger(o.logger)}, o.resolverOpts...)
	resolver := auth.NewResolver(store, cookies, cfg.Credentials, resolverOpts...)

	return &Dispatcher{
		rest:      rest.NewBuilder(cfg.B2BBaseURL, resolver),
		graphql:   graphql.NewBuilder(cfg.B2BBaseURL, cfg.PlatformBaseURL, resolver),
		transport: tr,
		logger:    o.logger,
	}
}

// Get issues a GET. A non-empty data payload is appended as a query string.
func (d *Dispatcher) Get(ctx context.Context, path string, t target.Target, data any, cfg *Config) (*transport.Result, error) {
	query, err := encoding.EncodeQuery(data)
	if err != nil {
		return nil, err
	}
	if query != "" {
		path = path + "?" + query
	}

	return d.do(ctx, rest.Request{Target: t, Path: path, Method: http.MethodGet}, options(cfg))
}

// Post sends data as a JSON body.
func (d *Dispatcher) Post(ctx context.Context, path string, t target.Target, data any) (*transport.Result, error) {
	return d.withJSON(ctx, path, t, http.MethodPost, data)
}

// Put sends data as a JSON body.
func (d *Dispatcher) Put(ctx context.Context, path string, t target.Target, data any) (*transport.Result, error) {
	return d.withJSON(ctx, path, t, http.MethodPut, data)
}

// Delete issues a DELETE without a body.
func (d *Dispatcher) Delete(ctx context.Context, path string, t target.Target) (*transport.Result, error) {
	return d.do(ctx, rest.Request{Target: t, Path: path, Method: http.MethodDelete}, rest.Options{})
}

// FileUpload posts a multipart body to the B2B service. No content-type header
// is set unless cfg supplies one; the Transport sends the form boundary.
func (d *Dispatcher) FileUpload(ctx context.Context, path string, data encoding.Multipart, cfg *Config) (*transport.Result, error) {
	body, contentType, err := data.Multipart()
	if err != nil {
		return nil, err
	}

	return d.do(ctx, rest.Request{
		Target:          target.B2BRest,
		Path:            path,
		Method:          http.MethodPost,
		Body:            body,
		Multipart:       true,
		FormContentType: contentType,
	}, options(cfg))
}

// GraphQLB2B runs an operation against the B2B GraphQL endpoint.
// suppressErrors turns off the Transport's default error reporting for this call.
func (d *Dispatcher) GraphQLB2B(ctx context.Context, payload graphql.Payload, suppressErrors bool) (*transport.Result, error) {
	return d.graphQL(ctx, target.B2BGraphql, payload, nil, suppressErrors)
}

// GraphQLProxyBC runs an operation against the platform endpoint with the proxy token.
func (d *Dispatcher) GraphQLProxyBC(ctx context.Context, payload graphql.Payload) (*transport.Result, error) {
	return d.graphQL(ctx, target.BCProxyGraphql, payload, nil, false)
}

// GraphQLBC runs an operation against the platform endpoint with the platform token.
func (d *Dispatcher) GraphQLBC(ctx context.Context, payload graphql.Payload) (*transport.Result, error) {
	return d.graphQL(ctx, target.BCGraphql, payload, nil, false)
}

// GraphQL is the general form behind the three fixed-target operations.
func (d *Dispatcher) GraphQL(ctx context.Context, t target.Target, payload graphql.Payload, headers map[string]string, suppressErrors bool) (*transport.Result, error) {
	return d.graphQL(ctx, t, payload, headers, suppressErrors)
}

func (d *Dispatcher) withJSON(ctx context.Context, path string, t target.Target, method string, data any) (*transport.Result, error) {
	var body []byte
	if data != nil {
		var err error
		if body, err = encoding.EncodeBody(data); err != nil {
			return nil, err
		}
	}

	return d.do(ctx, rest.Request{Target: t, Path: path, Method: method, Body: body}, rest.Options{})
}

func (d *Dispatcher) do(ctx context.Context, req rest.Request, opts rest.Options) (*transport.Result, error) {
	desc, err := d.rest.Build(ctx, req, opts)
	if err != nil {
		return nil, err
	}
	return d.execute(ctx, desc, req.Target, false)
}

func (d *Dispatcher) graphQL(ctx context.Context, t target.Target, payload graphql.Payload, headers map[string]string, suppressErrors bool) (*transport.Result, error) {
	desc, err := d.graphql.Build(ctx, t, payload, headers)
	if err != nil {
		return nil, err
	}
	return d.execute(ctx, desc, t, suppressErrors)
}

func (d *Dispatcher) execute(ctx context.Context, desc *transport.Descriptor, t target.Target, suppressErrors bool) (*transport.Result, error) {
	logging.FromContext(ctx, &d.logger).Debug().
		Stringer("target", t).
		Str("method", desc.Method).
		Str("url", desc.URL).
		Msg("dispatching request")

	return d.transport.Execute(ctx, desc, t, suppressErrors)
}

func options(cfg *Config) rest.Options {
	if cfg == nil {
		return rest.Options{}
	}
	return *cfg
}

// Decode unwraps an operation's result into T.
//
//	orders, err := dispatch.Decode[[]Order](d.Get(ctx, "/orders", target.B2BRest, nil, nil))
func Decode[T any](res *transport.Result, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if res == nil {
		return out, nil
	}
	err = res.Decode(&out)
	return out, err
}
