// Package cli implements the b3req command line client.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/saturnines/storefront-dispatch/pkg/auth"
	"github.com/saturnines/storefront-dispatch/pkg/config"
	"github.com/saturnines/storefront-dispatch/pkg/dispatch"
	"github.com/saturnines/storefront-dispatch/pkg/logging"
	"github.com/saturnines/storefront-dispatch/pkg/target"
	"github.com/saturnines/storefront-dispatch/pkg/transport"
)

type globalFlags struct {
	configPath  string
	envFiles    []string
	b2bURL      string
	platformURL string
	tokens      []string
	cookies     []string
	headers     []string
	target      string
	dryRun      bool
	logLevel    string
}

// NewRootCommand builds the b3req command tree
func NewRootCommand(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "b3req",
		Short: "Send requests through the storefront dispatcher",
		Long: `b3req issues requests to the B2B service and the storefront platform the same
way the storefront does: each call names a backend target, which decides the base URL
and the credential sent with it.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.SetOut(out)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	pf.StringSliceVar(&flags.envFiles, "env-file", nil, "dotenv files loaded before the config is expanded")
	pf.StringVar(&flags.b2bURL, "b2b-url", "", "B2B base URL (overrides config)")
	pf.StringVar(&flags.platformURL, "platform-url", "", "platform base URL (overrides config)")
	pf.StringArrayVar(&flags.tokens, "token", nil, "credential store entry key=value (repeatable)")
	pf.StringArrayVar(&flags.cookies, "cookie", nil, "cookie name=value (repeatable)")
	pf.StringArrayVarP(&flags.headers, "header", "H", nil, "extra header key:value (repeatable)")
	pf.StringVarP(&flags.target, "target", "t", "b2b-rest", "backend target")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "print the request descriptor instead of sending it")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(
		newGetCommand(flags),
		newBodyCommand(flags, "post"),
		newBodyCommand(flags, "put"),
		newDeleteCommand(flags),
		newUploadCommand(flags),
		newGraphQLCommand(flags),
	)

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// env holds what every subcommand needs to dispatch
type env struct {
	dispatcher *dispatch.Dispatcher
	target     target.Target
	headers    map[string]string
	out        io.Writer
}

func (f *globalFlags) setup(cmd *cobra.Command) (*env, error) {
	if err := loadEnvFiles(f.envFiles, defaultEnvFile); err != nil {
		return nil, err
	}

	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if f.logLevel != "" {
		level = f.logLevel
	}
	logger := logging.New(level, cmd.ErrOrStderr())

	tgt, err := target.Parse(f.target)
	if err != nil {
		return nil, err
	}

	headers, err := parsePairs(f.headers, ":")
	if err != nil {
		return nil, fmt.Errorf("invalid --header: %w", err)
	}

	store, err := f.store(cfg)
	if err != nil {
		return nil, err
	}
	cookies, err := parsePairs(f.cookies, "=")
	if err != nil {
		return nil, fmt.Errorf("invalid --cookie: %w", err)
	}

	var tr transport.Transport
	if f.dryRun {
		tr = printTransport(cmd.OutOrStdout())
	} else {
		tr, err = transport.NewHTTPTransport(cfg.PlatformBaseURL,
			transport.WithTimeout(cfg.Timeout),
			transport.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
	}

	d := dispatch.New(cfg, store, auth.StaticCookies(cookies), tr, dispatch.WithLogger(logger))
	return &env{
		dispatcher: d,
		target:     tgt,
		headers:    headers,
		out:        cmd.OutOrStdout(),
	}, nil
}

const defaultEnvFile = ".env"

// loadEnvFiles loads the named dotenv files, or fallback when none are named.
// Only a missing fallback is ignored; a malformed one is an error.
func loadEnvFiles(files []string, fallback string) error {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return fmt.Errorf("failed to load env files: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(fallback); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", fallback, err)
	}
	return nil
}

func (f *globalFlags) loadConfig() (*config.Config, error) {
	loader := config.NewDefaultLoader()

	cfg := &config.Config{}
	if f.configPath != "" {
		// defaults and validation run once, after flag overrides
		raw, err := config.NewLoader(&config.EnvExpander{}, nil).Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = raw
	} else {
		cfg.B2BBaseURL = os.Getenv("B2B_BASE_URL")
		cfg.PlatformBaseURL = os.Getenv("PLATFORM_BASE_URL")
		cfg.SessionFile = os.Getenv("SESSION_FILE")
	}

	if f.b2bURL != "" {
		cfg.B2BBaseURL = f.b2bURL
	}
	if f.platformURL != "" {
		cfg.PlatformBaseURL = f.platformURL
	}
	return loader.Finalize(cfg)
}

func (f *globalFlags) store(cfg *config.Config) (auth.Store, error) {
	tokens, err := parsePairs(f.tokens, "=")
	if err != nil {
		return nil, fmt.Errorf("invalid --token: %w", err)
	}
	if len(tokens) == 0 && cfg.SessionFile != "" {
		return auth.NewFileStore(cfg.SessionFile), nil
	}
	return auth.NewMemoryStore(tokens), nil
}

func parsePairs(pairs []string, sep string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, sep)
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key%svalue, got %q", sep, p)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}

// printTransport writes descriptors as JSON and never touches the network
func printTransport(w io.Writer) transport.Transport {
	return transport.TransportFunc(func(_ context.Context, d *transport.Descriptor, t target.Target, suppress bool) (*transport.Result, error) {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err := enc.Encode(struct {
			Target          string            `json:"target"`
			URL             string            `json:"url"`
			Method          string            `json:"method"`
			Headers         map[string]string `json:"headers"`
			Body            string            `json:"body,omitempty"`
			FormContentType string            `json:"form_content_type,omitempty"`
			SuppressErrors  bool              `json:"suppress_errors,omitempty"`
		}{
			Target:          t.String(),
			URL:             d.URL,
			Method:          d.Method,
			Headers:         d.Headers,
			Body:            string(d.Body),
			FormContentType: d.FormContentType,
			SuppressErrors:  suppress,
		})
		if err != nil {
			return nil, err
		}
		return &transport.Result{}, nil
	})
}
