package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ludoterm/config"
)

// rootFlagKeys maps the play command's flags onto config keys.
var rootFlagKeys = map[string]string{
	"authority-url":   "authority.url",
	"push":            "authority.push",
	"push-url":        "authority.push_url",
	"poll-interval":   "authority.poll_interval",
	"request-timeout": "authority.request_timeout",
	"match":           "selection.match_mode",
	"log-file":        "log.file",
	"verbose":         "log.verbose",
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "ludoterm",
		Short: "Play Ludo in the terminal against a remote game authority.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.InitConfig(v)
			if err != nil {
				return err
			}
			log, err := newFileLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runApp(cmd.Context(), cfg, log)
		},
	}

	d := config.DefaultConfig
	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringP("authority-url", "u", d.Authority.URL, "base URL of the game authority (env: LUDOTERM_AUTHORITY_URL)")
	fs.Bool("push", d.Authority.Push, "receive snapshots over the authority's WebSocket (env: LUDOTERM_AUTHORITY_PUSH)")
	fs.String("push-url", d.Authority.PushURL, "WebSocket URL, derived from --authority-url when empty (env: LUDOTERM_AUTHORITY_PUSH_URL)")
	fs.Duration("poll-interval", d.Authority.PollInterval, "time between state polls (env: LUDOTERM_AUTHORITY_POLL_INTERVAL)")
	fs.Duration("request-timeout", d.Authority.RequestTimeout, "deadline for each authority request (env: LUDOTERM_AUTHORITY_REQUEST_TIMEOUT)")
	fs.String("match", d.Selection.MatchMode, "selection match mode, containment or exact (env: LUDOTERM_SELECTION_MATCH_MODE)")
	fs.String("log-file", d.Log.File, "log file, defaults to the XDG state dir (env: LUDOTERM_LOG_FILE)")
	fs.BoolP("verbose", "v", d.Log.Verbose, "log debug output (env: LUDOTERM_LOG_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := rootFlagKeys[f.Name]; ok {
			_ = v.BindPFlag(key, f)
		}
	})

	cmd.AddCommand(newMockAuthorityCmd(), newVersionCmd())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ludoterm %s\n", Version)
		},
	}
}

type mockConfig struct {
	script  string
	bind    string
	port    int
	logDir  string
	aiDelay time.Duration
	verbose bool
}

func (c *mockConfig) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.aiDelay < 0 {
		return errors.New("--ai-delay must not be negative")
	}
	return nil
}

func newMockAuthorityCmd() *cobra.Command {
	cfg := &mockConfig{}
	v := viper.New()
	v.SetEnvPrefix("LUDOTERM_MOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "mock-authority",
		Short: "Serve a scripted game authority for offline play.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			log, err := newConsoleLogger(cfg.verbose)
			if err != nil {
				return err
			}
			defer log.Sync()
			return serveMockAuthority(cmd.Context(), cfg, log)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.script, "script", "", "game script to serve, the built-in demo when empty (env: LUDOTERM_MOCK_SCRIPT)")
	fs.StringVarP(&cfg.bind, "bind", "b", "127.0.0.1", "address to bind to (env: LUDOTERM_MOCK_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 5000, "port to listen on (env: LUDOTERM_MOCK_PORT)")
	fs.StringVar(&cfg.logDir, "log-dir", "", "directory of recorded runs served by /get_logs (env: LUDOTERM_MOCK_LOG_DIR)")
	fs.DurationVar(&cfg.aiDelay, "ai-delay", time.Second, "time an AI seat thinks before moving (env: LUDOTERM_MOCK_AI_DELAY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log every request (env: LUDOTERM_MOCK_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	return cmd
}

// newFileLogger logs JSON to the configured file; the terminal belongs to the UI.
func newFileLogger(c config.LogConfig) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Sampling = nil
	zc.OutputPaths = []string{c.File}
	zc.ErrorOutputPaths = []string{c.File}
	if c.Verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func newConsoleLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}
