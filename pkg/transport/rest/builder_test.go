package rest

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/storefront-dispatch/pkg/auth"
	"github.com/saturnines/storefront-dispatch/pkg/config"
	"github.com/saturnines/storefront-dispatch/pkg/errors"
	"github.com/saturnines/storefront-dispatch/pkg/target"
)

const b2bBase = "https://api-b2b.example.com"

func newBuilder(values map[string]string, opts ...auth.ResolverOption) *Builder {
	keys := config.Credentials{
		B2BTokenKey:   config.DefaultB2BTokenKey,
		BCTokenKey:    config.DefaultBCTokenKey,
		ProxyTokenKey: config.DefaultProxyTokenKey,
		XSRFCookie:    config.DefaultXSRFCookie,
	}
	resolver := auth.NewResolver(auth.NewMemoryStore(values), auth.StaticCookies{"XSRF-TOKEN": "xsrf"}, keys, opts...)
	return NewBuilder(b2bBase, resolver)
}

func TestBuilder_B2BPrefix(t *testing.T) {
	b := newBuilder(map[string]string{"B3B2BToken": "tok123"})

	d, err := b.Build(context.Background(), Request{
		Target: target.B2BRest,
		Path:   "/orders",
		Method: http.MethodPost,
		Body:   []byte(`{"id":7}`),
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, b2bBase+"/orders", d.URL)
	assert.Equal(t, http.MethodPost, d.Method)
	assert.Equal(t, map[string]string{"content-type": "application/json", "authToken": "tok123"}, d.Headers)
	assert.Equal(t, `{"id":7}`, string(d.Body))
}

func TestBuilder_PlatformPathUnchanged(t *testing.T) {
	b := newBuilder(nil)

	d, err := b.Build(context.Background(), Request{Target: target.BCRest, Path: "/api/storefront/cart"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, "/api/storefront/cart", d.URL)
	assert.Equal(t, http.MethodGet, d.Method)
	assert.Equal(t, "xsrf", d.Headers["x-xsrf-token"])
	assert.Nil(t, d.Body)
}

func TestBuilder_HeaderPrecedence(t *testing.T) {
	b := newBuilder(map[string]string{"B3B2BToken": "real"})

	d, err := b.Build(context.Background(), Request{Target: target.B2BRest, Path: "/x"}, Options{
		Headers: map[string]string{
			"authToken":    "x",
			"Content-Type": "text/plain",
			"X-Trace":      "abc",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"authToken":    "real",
		"Content-Type": "text/plain",
		"X-Trace":      "abc",
	}, d.Headers)
}

func TestBuilder_CredentialWinsCaseInsensitively(t *testing.T) {
	b := newBuilder(map[string]string{"B3B2BToken": "real"})

	d, err := b.Build(context.Background(), Request{Target: target.B2BRest, Path: "/x"}, Options{
		Headers: map[string]string{"AUTHTOKEN": "spoofed"},
	})
	require.NoError(t, err)

	v, ok := d.Header("authtoken")
	require.True(t, ok)
	assert.Equal(t, "real", v)
	assert.Len(t, d.Headers, 2)
}

func TestBuilder_MethodOverride(t *testing.T) {
	b := newBuilder(nil)

	d, err := b.Build(context.Background(), Request{Target: target.BCRest, Path: "/search", Method: http.MethodGet}, Options{Method: http.MethodPost})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, d.Method)
}

func TestBuilder_Multipart(t *testing.T) {
	b := newBuilder(map[string]string{"B3B2BToken": "tok"})

	d, err := b.Build(context.Background(), Request{
		Target:          target.B2BRest,
		Path:            "/upload",
		Method:          http.MethodPost,
		Body:            []byte("form"),
		Multipart:       true,
		FormContentType: "multipart/form-data; boundary=b",
	}, Options{})
	require.NoError(t, err)

	_, hasCT := d.Header("content-type")
	assert.False(t, hasCT)
	assert.Equal(t, map[string]string{"authToken": "tok"}, d.Headers)
	assert.Equal(t, "multipart/form-data; boundary=b", d.FormContentType)
}

func TestBuilder_StrictMissingCredential(t *testing.T) {
	b := newBuilder(nil, auth.WithStrict(true))

	_, err := b.Build(context.Background(), Request{Target: target.B2BRest, Path: "/x"}, Options{})
	assert.True(t, errors.Is(err, errors.ErrMissingCredential))
}
