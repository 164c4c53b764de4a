package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/storefront-dispatch/pkg/config"
	"github.com/saturnines/storefront-dispatch/pkg/errors"
	"github.com/saturnines/storefront-dispatch/pkg/target"
)

func defaultKeys() config.Credentials {
	return config.Credentials{
		B2BTokenKey:   config.DefaultB2BTokenKey,
		BCTokenKey:    config.DefaultBCTokenKey,
		ProxyTokenKey: config.DefaultProxyTokenKey,
		XSRFCookie:    config.DefaultXSRFCookie,
	}
}

// rotatingStore hands out the next value on every read
type rotatingStore struct {
	values []string
	reads  int
}

func (s *rotatingStore) Get(string) string {
	s.reads++
	if s.reads > len(s.values) {
		return ""
	}
	return s.values[s.reads-1]
}

func TestResolver_TargetMapping(t *testing.T) {
	store := NewMemoryStore(map[string]string{
		"B3B2BToken":   "b2b-token",
		"BcToken":      "bc-token",
		"bc_jwt_token": "proxy-token",
	})
	cookies := StaticCookies{"XSRF-TOKEN": "xsrf-value"}
	r := NewResolver(store, cookies, defaultKeys())

	tests := []struct {
		target target.Target
		want   Credential
	}{
		{target.B2BRest, Credential{"authToken", "b2b-token"}},
		{target.B2BGraphql, Credential{"authToken", "b2b-token"}},
		{target.BCRest, Credential{"x-xsrf-token", "xsrf-value"}},
		{target.BCGraphql, Credential{"Authorization", "Bearer  bc-token"}},
		{target.BCProxyGraphql, Credential{"Authorization", "Bearer  proxy-token"}},
	}

	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			cred, err := r.Resolve(context.Background(), tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cred)
		})
	}
}

func TestResolver_ResolveBearer(t *testing.T) {
	store := NewMemoryStore(map[string]string{"B3B2BToken": "b2b-token", "BcToken": "bc-token"})
	r := NewResolver(store, nil, defaultKeys())

	cred, err := r.ResolveBearer(context.Background(), target.B2BGraphql)
	require.NoError(t, err)
	assert.Equal(t, Credential{"Authorization", "Bearer  b2b-token"}, cred)

	cred, err = r.ResolveBearer(context.Background(), target.BCGraphql)
	require.NoError(t, err)
	assert.Equal(t, Credential{"Authorization", "Bearer  bc-token"}, cred)
}

func TestResolver_ReadsTokenOnce(t *testing.T) {
	store := &rotatingStore{values: []string{"tok", ""}}
	r := NewResolver(store, nil, defaultKeys(), WithStrict(true))

	cred, err := r.Resolve(context.Background(), target.B2BRest)
	require.NoError(t, err)
	assert.Equal(t, Credential{"authToken", "tok"}, cred)
	assert.Equal(t, 1, store.reads)

	store = &rotatingStore{values: []string{"bc"}}
	r = NewResolver(store, nil, defaultKeys())
	cred, err = r.Resolve(context.Background(), target.BCGraphql)
	require.NoError(t, err)
	assert.Equal(t, "Bearer  bc", cred.Value)
	assert.Equal(t, 1, store.reads)
}

func TestResolver_MissingCredential(t *testing.T) {
	t.Run("ForwardedEmpty", func(t *testing.T) {
		r := NewResolver(NewMemoryStore(nil), nil, defaultKeys())

		cred, err := r.Resolve(context.Background(), target.B2BRest)
		require.NoError(t, err)
		assert.Equal(t, Credential{"authToken", ""}, cred)

		cred, err = r.Resolve(context.Background(), target.BCRest)
		require.NoError(t, err)
		assert.Equal(t, Credential{"x-xsrf-token", ""}, cred)

		cred, err = r.Resolve(context.Background(), target.BCProxyGraphql)
		require.NoError(t, err)
		assert.Equal(t, Credential{"Authorization", "Bearer  "}, cred)
	})

	t.Run("Strict", func(t *testing.T) {
		r := NewResolver(NewMemoryStore(nil), nil, defaultKeys(), WithStrict(true))

		_, err := r.Resolve(context.Background(), target.B2BRest)
		assert.True(t, errors.Is(err, errors.ErrMissingCredential), "got %v", err)
	})

	t.Run("StrictFromConfig", func(t *testing.T) {
		keys := defaultKeys()
		keys.Strict = true
		r := NewResolver(nil, nil, keys)

		_, err := r.ResolveBearer(context.Background(), target.BCGraphql)
		assert.True(t, errors.Is(err, errors.ErrMissingCredential), "got %v", err)
	})

	t.Run("LogsWarning", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewResolver(nil, nil, defaultKeys(), WithLogger(zerolog.New(&buf)))

		_, err := r.Resolve(context.Background(), target.BCGraphql)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "no credential stored")
	})
}

func TestResolver_InvalidTarget(t *testing.T) {
	r := NewResolver(NewMemoryStore(nil), nil, defaultKeys())

	_, err := r.Resolve(context.Background(), target.Target{})
	assert.True(t, errors.Is(err, errors.ErrConfiguration), "got %v", err)
}

func TestResolver_ReadsFreshEachTime(t *testing.T) {
	store := NewMemoryStore(map[string]string{"B3B2BToken": "first"})
	r := NewResolver(store, nil, defaultKeys())

	cred, err := r.Resolve(context.Background(), target.B2BRest)
	require.NoError(t, err)
	assert.Equal(t, "first", cred.Value)

	store.Set("B3B2BToken", "second")
	cred, err = r.Resolve(context.Background(), target.B2BRest)
	require.NoError(t, err)
	assert.Equal(t, "second", cred.Value)
}

func TestResolver_ExpiredJWT(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "customer-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	var buf bytes.Buffer
	store := NewMemoryStore(map[string]string{"bc_jwt_token": token})
	r := NewResolver(store, nil, defaultKeys(),
		WithLogger(zerolog.New(&buf)),
		WithClock(func() time.Time { return now }),
	)

	cred, err := r.Resolve(context.Background(), target.BCProxyGraphql)
	require.NoError(t, err)
	assert.Equal(t, Credential{"Authorization", "Bearer  " + token}, cred)

	assert.Contains(t, buf.String(), "stored credential has expired")
	assert.NotContains(t, buf.String(), token)
}

func TestInspectToken(t *testing.T) {
	t.Run("Opaque", func(t *testing.T) {
		_, ok := InspectToken("not-a-jwt")
		assert.False(t, ok)
	})

	t.Run("NoExpiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "s"}).
			SignedString([]byte("k"))
		require.NoError(t, err)

		info, ok := InspectToken(token)
		require.True(t, ok)
		assert.Equal(t, "s", info.Subject)
		assert.False(t, info.Expired(time.Now()))
	})
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(defaultKeys())

	h, err := registry.Lookup(target.BCRest)
	require.NoError(t, err)
	assert.IsType(t, &XSRFAuth{}, h)

	registry.Register(target.BCRest, NewHeaderTokenAuth("X-Custom", "custom"))
	h, err = registry.Lookup(target.BCRest)
	require.NoError(t, err)

	src := Sources{Store: NewMemoryStore(map[string]string{"custom": "v"})}
	assert.Equal(t, Credential{"X-Custom", "v"}, h.Credential(h.Token(src)))
}

func TestHandlerStrings(t *testing.T) {
	for _, s := range []string{
		NewBearerAuth("BcToken").String(),
		NewXSRFAuth("XSRF-TOKEN").String(),
		NewHeaderTokenAuth("authToken", "B3B2BToken").String(),
		Credential{Header: "authToken", Value: "secret"}.String(),
	} {
		assert.NotContains(t, s, "secret")
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("B3B2BToken: from-file\n"), 0o600))

	store := NewFileStore(path)
	assert.Equal(t, "from-file", store.Get("B3B2BToken"))

	require.NoError(t, os.WriteFile(path, []byte("B3B2BToken: rotated\n"), 0o600))
	assert.Equal(t, "rotated", store.Get("B3B2BToken"))

	missing := NewFileStore(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Empty(t, missing.Get("B3B2BToken"))
	_, err := missing.Load()
	assert.Error(t, err)
}

func TestJarCookies(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse("https://store.example.com/")
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "XSRF-TOKEN", Value: "jar-xsrf"}})

	r := NewResolver(nil, &JarCookies{Jar: jar, URL: u}, defaultKeys())
	cred, err := r.Resolve(context.Background(), target.BCRest)
	require.NoError(t, err)
	assert.Equal(t, Credential{"x-xsrf-token", "jar-xsrf"}, cred)

	empty := &JarCookies{}
	assert.Empty(t, empty.Cookie("XSRF-TOKEN"))
}
