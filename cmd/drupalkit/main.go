// Package main implements the drupalkit command-line client.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/drupalkit/drupalkit/pkg/config"
	"github.com/drupalkit/drupalkit/pkg/drupalkit"
	"github.com/drupalkit/drupalkit/pkg/httpclient"
	"github.com/drupalkit/drupalkit/pkg/secrets"
)

// version is set at build time
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pterm.Error.Printf("%v\n", err)
		os.Exit(1)
	}
}

// app carries state shared by all subcommands.
type app struct {
	configPath string
	debug      bool
	quiet      bool

	loader *config.Loader
	config *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "drupalkit",
		Short: "Talk to Drupal sites from the command line",
		Long: `drupalkit sends authenticated requests to a Drupal site.

Settings are read from $XDG_CONFIG_HOME/drupalkit/config.yaml,
DRUPALKIT_* environment variables and command-line flags.
Authentication supports HTTP Basic, static bearer tokens and the
simple_oauth client credentials grant.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to config file")
	flags.String("base-url", "", "Base URL of the Drupal site")
	flags.String("consumer-id", "", "Consumer id sent as X-Consumer-ID")
	flags.Duration("timeout", 0, "HTTP request timeout")
	flags.BoolVarP(&a.debug, "debug", "d", false, "Enable debug logging")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "Suppress progress output")

	cmd.AddCommand(newRequestCmd(a))
	cmd.AddCommand(newTokenCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// setup installs the logger and loads configuration.
func (a *app) setup(cmd *cobra.Command) error {
	a.logger = newLogger(cmd.ErrOrStderr(), a.debug)
	slog.SetDefault(a.logger)

	flags := cmd.Flags()
	a.loader = config.NewLoader(config.AppName).
		SetConfigPath(a.configPath).
		BindFlag("base_url", flags.Lookup("base-url")).
		BindFlag("consumer_id", flags.Lookup("consumer-id")).
		BindFlag("timeout", flags.Lookup("timeout"))

	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}
	a.config = cfg

	a.logger.Debug("Loaded configuration",
		"path", a.loader.ConfigPath(),
		"base_url", cfg.BaseURL,
		"auth", cfg.Auth.Type)
	return nil
}

// newClient builds a client from the loaded configuration. In debug mode
// all traffic is logged with secrets masked.
func (a *app) newClient() (*drupalkit.Client, error) {
	var opts []drupalkit.Option
	if a.debug {
		dl := secrets.NewDebugLogger(a.logger, &a.config.Masking)
		opts = append(opts,
			drupalkit.WithBeforeRequest(func(req *http.Request, _ string, _ *httpclient.RequestOptions) (*http.Request, error) {
				return req, dl.LogRequest(req)
			}),
			drupalkit.WithAfterRequest(func(resp *http.Response) (*http.Response, error) {
				return resp, dl.LogResponse(resp)
			}),
		)
	}

	client, err := config.NewClient(a.config, a.logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return client, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := pterm.LogLevelInfo
	if debug {
		level = pterm.LogLevelDebug
	}
	logger := pterm.DefaultLogger.WithLevel(level).WithWriter(w)
	return slog.New(pterm.NewSlogHandler(logger))
}
