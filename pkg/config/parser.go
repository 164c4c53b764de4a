package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidationError describes one invalid field
type ValidationError struct {
	Field   string
	Message string
}

// Returns the string representation of validation error
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator checks a parsed Config
type Validator interface {
	Validate(cfg *Config) []ValidationError
}

// DefaultValueSetter fills in unset fields
type DefaultValueSetter interface {
	SetDefaults(cfg *Config)
}

// VariableExpander defines the interface for expanding variables
type VariableExpander interface {
	Expand(data []byte) []byte
}

// EnvExpander implements VariableExpander using environment variables
type EnvExpander struct{}

// Expand expands environment variables with the given data
func (e *EnvExpander) Expand(data []byte) []byte {
	return []byte(os.Expand(string(data), os.Getenv))
}

// Loader reads dispatcher configuration from YAML
type Loader struct {
	expander      VariableExpander
	validators    []Validator
	defaultSetter DefaultValueSetter
}

// NewLoader creates a Loader with the given components
func NewLoader(
	expander VariableExpander,
	defaultSetter DefaultValueSetter,
	validators ...Validator,
) *Loader {
	return &Loader{
		expander:      expander,
		validators:    validators,
		defaultSetter: defaultSetter,
	}
}

// NewDefaultLoader wires env expansion, defaults and every built-in validator.
func NewDefaultLoader() *Loader {
	return NewLoader(
		&EnvExpander{},
		&Defaults{},
		&RequiredFieldValidator{},
		&URLValidator{},
		&CredentialKeyValidator{},
	)
}

// Load a config from a YAML file
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return l.Parse(data)
}

// Parse parses a yaml config
func (l *Loader) Parse(data []byte) (*Config, error) {
	if l.expander != nil {
		data = l.expander.Expand(data)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return l.Finalize(&cfg)
}

// Finalize applies defaults and validators to a Config built in code.
func (l *Loader) Finalize(cfg *Config) (*Config, error) {
	if l.defaultSetter != nil {
		l.defaultSetter.SetDefaults(cfg)
	}

	var allErrors []ValidationError
	for _, validator := range l.validators {
		allErrors = append(allErrors, validator.Validate(cfg)...)
	}

	if len(allErrors) > 0 {
		return nil, fmt.Errorf("validation errors: %v", allErrors)
	}

	return cfg, nil
}

// Defaults implements DefaultValueSetter for Config
type Defaults struct{}

// SetDefaults sets default values for Config
func (d *Defaults) SetDefaults(cfg *Config) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	creds := &cfg.Credentials
	if creds.B2BTokenKey == "" {
		creds.B2BTokenKey = DefaultB2BTokenKey
	}
	if creds.BCTokenKey == "" {
		creds.BCTokenKey = DefaultBCTokenKey
	}
	if creds.ProxyTokenKey == "" {
		creds.ProxyTokenKey = DefaultProxyTokenKey
	}
	if creds.XSRFCookie == "" {
		creds.XSRFCookie = DefaultXSRFCookie
	}

	// base URLs are joined with paths that start with "/"
	cfg.B2BBaseURL = strings.TrimRight(cfg.B2BBaseURL, "/")
	cfg.PlatformBaseURL = strings.TrimRight(cfg.PlatformBaseURL, "/")
}

// RequiredFieldValidator validates required fields
type RequiredFieldValidator struct{}

// Validate checks that both base URLs are present
func (v *RequiredFieldValidator) Validate(cfg *Config) []ValidationError {
	var errors []ValidationError

	if cfg.B2BBaseURL == "" {
		errors = append(errors, ValidationError{Field: "b2b_base_url", Message: "is required"})
	}
	if cfg.PlatformBaseURL == "" {
		errors = append(errors, ValidationError{Field: "platform_base_url", Message: "is required"})
	}

	return errors
}

// URLValidator checks that base URLs are absolute http(s) URLs
type URLValidator struct{}

// Validate checks each configured base URL
func (v *URLValidator) Validate(cfg *Config) []ValidationError {
	var errors []ValidationError

	for field, raw := range map[string]string{
		"b2b_base_url":      cfg.B2BBaseURL,
		"platform_base_url": cfg.PlatformBaseURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			errors = append(errors, ValidationError{Field: field, Message: err.Error()})
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, ValidationError{Field: field, Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)})
		}
		if u.Host == "" {
			errors = append(errors, ValidationError{Field: field, Message: "host is required"})
		}
	}

	return errors
}

// CredentialKeyValidator rejects blank credential keys
type CredentialKeyValidator struct{}

// Validate checks that every credential key is set
func (v *CredentialKeyValidator) Validate(cfg *Config) []ValidationError {
	var errors []ValidationError

	keys := []struct{ field, value string }{
		{"credentials.b2b_token_key", cfg.Credentials.B2BTokenKey},
		{"credentials.bc_token_key", cfg.Credentials.BCTokenKey},
		{"credentials.proxy_token_key", cfg.Credentials.ProxyTokenKey},
		{"credentials.xsrf_cookie", cfg.Credentials.XSRFCookie},
	}
	for _, k := range keys {
		if strings.TrimSpace(k.value) == "" {
			errors = append(errors, ValidationError{Field: k.field, Message: "is required"})
		}
	}

	return errors
}
