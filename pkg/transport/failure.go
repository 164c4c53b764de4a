package transport

import (
	"fmt"
	"strings"

	"github.com/saturnines/storefront-dispatch/pkg/errors"
	"github.com/saturnines/storefront-dispatch/pkg/target"
)

// Kind classifies why a request failed
type Kind string

const (
	KindNetwork Kind = "network" // no response received
	KindStatus  Kind = "status"  // non-2xx status
	KindDecode  Kind = "decode"  // body was not the expected JSON
	KindGraphQL Kind = "graphql" // GraphQL envelope carried errors
)

// maxBodySnippet bounds how much of a failed response is kept
const maxBodySnippet = 512

// Failure is a classified transport error.
// errors.Is(f, errors.ErrTransport) always holds.
type Failure struct {
	Kind       Kind
	Target     target.Target
	Method     string
	URL        string
	StatusCode int
	Body       string
	Messages   []string
	Err        error
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s): %s failure", f.Method, f.URL, f.Target, f.Kind)
	if f.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", f.StatusCode)
	}
	if len(f.Messages) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(f.Messages, "; "))
	} else if f.Body != "" {
		fmt.Fprintf(&b, ": %s", f.Body)
	}
	if f.Err != nil {
		fmt.Fprintf(&b, ": %v", f.Err)
	}
	return b.String()
}

// Unwrap exposes the transport sentinel, the kind sentinel and the cause
func (f *Failure) Unwrap() []error {
	out := []error{errors.ErrTransport}
	switch f.Kind {
	case KindStatus, KindDecode:
		out = append(out, errors.ErrHTTPResponse)
	case KindGraphQL:
		out = append(out, errors.ErrGraphQL)
	}
	if f.Err != nil {
		out = append(out, f.Err)
	}
	return out
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodySnippet {
		return s[:maxBodySnippet] + "..."
	}
	return s
}
