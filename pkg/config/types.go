package config

import "time"

// Config holds everything the dispatcher needs to address its backends.
// It is built once at startup and read-only afterwards.
type Config struct {
	B2BBaseURL      string        `yaml:"b2b_base_url"`          // Required: first-party B2B service
	PlatformBaseURL string        `yaml:"platform_base_url"`     // Required: active storefront platform
	Timeout         time.Duration `yaml:"timeout,omitempty"`     // Transport timeout (default 10s)
	Credentials     Credentials   `yaml:"credentials,omitempty"` // Store keys for each credential
	SessionFile     string        `yaml:"session_file,omitempty"`
	LogLevel        string        `yaml:"log_level,omitempty"`
}

// Credentials names the Credential Store keys and cookie the resolver reads.
type Credentials struct {
	B2BTokenKey   string `yaml:"b2b_token_key,omitempty"`
	BCTokenKey    string `yaml:"bc_token_key,omitempty"`
	ProxyTokenKey string `yaml:"proxy_token_key,omitempty"`
	XSRFCookie    string `yaml:"xsrf_cookie,omitempty"`
	Strict        bool   `yaml:"strict,omitempty"` // Fail on empty tokens instead of forwarding them
}

// Default credential keys and transport timeout.
const (
	DefaultB2BTokenKey   = "B3B2BToken"
	DefaultBCTokenKey    = "BcToken"
	DefaultProxyTokenKey = "bc_jwt_token"
	DefaultXSRFCookie    = "XSRF-TOKEN"
	DefaultTimeout       = 10 * time.Second
	DefaultLogLevel      = "info"
)
