package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saturnines/storefront-dispatch/pkg/logging"
	"github.com/saturnines/storefront-dispatch/pkg/target"
)

// DefaultTimeout bounds every request that has no earlier context deadline
const DefaultTimeout = 10 * time.Second

// HTTPDoer is a minimal interface for HTTP clients
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPTransport executes descriptors with an HTTPDoer.
// Relative descriptor URLs are prefixed with the platform base URL, keeping
// any path the base URL carries.
type HTTPTransport struct {
	doer    HTTPDoer
	baseURL string
	timeout time.Duration
	logger  zerolog.Logger
}

// HTTPOption configures an HTTPTransport
type HTTPOption func(*HTTPTransport)

// WithHTTPDoer swaps the underlying HTTPDoer
func WithHTTPDoer(doer HTTPDoer) HTTPOption {
	return func(t *HTTPTransport) {
		t.doer = doer
	}
}

// WithTimeout sets the per-request timeout; zero disables it
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		t.timeout = timeout
	}
}

// WithLogger sets the logger used for failure reporting
func WithLogger(l zerolog.Logger) HTTPOption {
	return func(t *HTTPTransport) {
		t.logger = l
	}
}

// NewHTTPTransport creates a transport resolving relative URLs against platformBaseURL
func NewHTTPTransport(platformBaseURL string, opts ...HTTPOption) (*HTTPTransport, error) {
	if _, err := url.Parse(platformBaseURL); err != nil {
		return nil, fmt.Errorf("invalid platform base URL: %w", err)
	}

	t := &HTTPTransport{
		doer:    &http.Client{},
		baseURL: platformBaseURL,
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Execute sends d and classifies the outcome
func (t *HTTPTransport) Execute(ctx context.Context, d *Descriptor, tgt target.Target, suppressErrors bool) (*Result, error) {
	logger := logging.FromContext(ctx, &t.logger).With().
		Str("request_id", uuid.NewString()).
		Stringer("target", tgt).
		Str("method", d.Method).
		Logger()

	res, err := t.execute(ctx, d, tgt)
	if err != nil {
		// suppressErrors hands reporting to the caller
		if suppressErrors {
			logger.Debug().Err(err).Msg("request failed")
		} else {
			logger.Error().Err(err).Msg("request failed")
		}
		return nil, err
	}

	logger.Debug().Int("status", res.StatusCode).Msg("request settled")
	return res, nil
}

func (t *HTTPTransport) execute(ctx context.Context, d *Descriptor, tgt target.Target) (*Result, error) {
	fail := func(kind Kind, status int, body []byte, err error) *Failure {
		return &Failure{
			Kind:       kind,
			Target:     tgt,
			Method:     d.Method,
			URL:        d.URL,
			StatusCode: status,
			Body:       snippet(body),
			Err:        err,
		}
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := t.newRequest(ctx, d)
	if err != nil {
		return nil, fail(KindNetwork, 0, nil, err)
	}

	resp, err := t.doer.Do(req)
	if err != nil {
		return nil, fail(KindNetwork, 0, nil, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(KindNetwork, resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fail(KindStatus, resp.StatusCode, body, nil)
	}

	result := &Result{StatusCode: resp.StatusCode, Header: resp.Header}
	if len(bytes.TrimSpace(body)) == 0 {
		return result, nil
	}

	if !tgt.IsGraphQL() {
		if !json.Valid(body) {
			return nil, fail(KindDecode, resp.StatusCode, body, fmt.Errorf("response is not valid JSON"))
		}
		result.Data = body
		return result, nil
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fail(KindDecode, resp.StatusCode, body, fmt.Errorf("failed to decode GraphQL response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		f := fail(KindGraphQL, resp.StatusCode, nil, nil)
		for _, e := range envelope.Errors {
			f.Messages = append(f.Messages, e.Message)
		}
		return nil, f
	}
	result.Data = envelope.Data
	return result, nil
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (t *HTTPTransport) newRequest(ctx context.Context, d *Descriptor) (*http.Request, error) {
	ref, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL: %w", err)
	}
	if !ref.IsAbs() {
		ref, err = url.Parse(JoinURL(t.baseURL, d.URL))
		if err != nil {
			return nil, fmt.Errorf("invalid request URL: %w", err)
		}
	}

	var bodyReader io.Reader
	if d.Body != nil {
		bodyReader = bytes.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, ref.String(), bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range d.Headers {
		req.Header.Set(key, value)
	}

	if _, ok := d.Header(HeaderContentType); !ok && d.FormContentType != "" {
		req.Header.Set(HeaderContentType, d.FormContentType)
	}
	return req, nil
}

var _ Transport = (*HTTPTransport)(nil)
