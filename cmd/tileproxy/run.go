package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"chaoszone/tileproxy/pkg/cli"
	"chaoszone/tileproxy/pkg/config"
	"chaoszone/tileproxy/pkg/telemetry/logging"
)

// telemetryFlushTimeout bounds the tracer flush on exit.
const telemetryFlushTimeout = 5 * time.Second

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the proxy server",
	Long: `Start the proxy server with the specified configuration.

The server listens on the configured address until it receives SIGINT or
SIGTERM, then drains in-flight requests for up to proxy.shutdown_timeout.

Examples:
  # Start with built-in defaults
  tileproxy run

  # Start with custom config
  tileproxy run --config /etc/tileproxy/config.yaml

  # Override listen address
  tileproxy run --listen 0.0.0.0:8080

  # Validate config without starting server
  tileproxy run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	cfg := config.GetConfig()

	if err := applyRunFlags(cfg); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(logger.Slog())

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	a, err := newApp(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		a.close(ctx)
	}()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	slog.Info("tileproxy starting",
		"version", Version,
		"config", cfgFile,
		"targets", len(cfg.Targets),
		"directory", cfg.Directory.Enabled,
		"tracing", cfg.Telemetry.Tracing.Enabled,
	)

	if err := a.run(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// applyRunFlags applies command-line overrides and validates the result.
func applyRunFlags(cfg *config.Config) error {
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	return nil
}
