package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/saturnines/storefront-dispatch/pkg/config"
	"github.com/saturnines/storefront-dispatch/pkg/errors"
	"github.com/saturnines/storefront-dispatch/pkg/logging"
	"github.com/saturnines/storefront-dispatch/pkg/target"
)

// Resolver picks the credential for a backend target on every request.
// It only ever reads from the store and cookie jar, so concurrent calls need no locking.
type Resolver struct {
	src      Sources
	registry *Registry
	strict   bool
	logger   zerolog.Logger
	now      func() time.Time
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithLogger sets the fallback logger used when the context carries none
func WithLogger(l zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithStrict makes an empty token an ErrMissingCredential instead of an unauthenticated request
func WithStrict(strict bool) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// WithRegistry swaps the target to handler mapping
func WithRegistry(reg *Registry) ResolverOption {
	return func(r *Resolver) {
		r.registry = reg
	}
}

// WithClock overrides time.Now for token expiry checks
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver over store and cookies using the configured keys
func NewResolver(store Store, cookies Cookies, keys config.Credentials, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		src:      Sources{Store: store, Cookies: cookies},
		registry: NewRegistry(keys),
		strict:   keys.Strict,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the single credential header for t.
func (r *Resolver) Resolve(ctx context.Context, t target.Target) (Credential, error) {
	h, err := r.registry.Lookup(t)
	if err != nil {
		return Credential{}, err
	}

	token := h.Token(r.src)
	if err := r.check(ctx, t, token); err != nil {
		return Credential{}, err
	}
	return h.Credential(token), nil
}

// ResolveBearer returns t's token formatted as the GraphQL Authorization header.
// GraphQL endpoints take every token as a bearer, including the B2B session token.
func (r *Resolver) ResolveBearer(ctx context.Context, t target.Target) (Credential, error) {
	h, err := r.registry.Lookup(t)
	if err != nil {
		return Credential{}, err
	}

	token := h.Token(r.src)
	if err := r.check(ctx, t, token); err != nil {
		return Credential{}, err
	}
	return Credential{Header: HeaderAuthorization, Value: BearerPrefix + token}, nil
}

func (r *Resolver) check(ctx context.Context, t target.Target, token string) error {
	logger := logging.FromContext(ctx, &r.logger)

	if token == "" {
		if r.strict {
			return errors.WrapError(
				fmt.Errorf("no token stored for target %s", t),
				errors.ErrMissingCredential,
				"resolve credential",
			)
		}
		logger.Warn().Stringer("target", t).Msg("no credential stored, sending unauthenticated request")
		return nil
	}

	if info, ok := InspectToken(token); ok && info.Expired(r.now()) {
		logger.Warn().
			Stringer("target", t).
			Time("expired_at", info.ExpiresAt).
			Msg("stored credential has expired")
	}
	return nil
}
