package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chaoszone/tileproxy/pkg/cli"
	"chaoszone/tileproxy/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file, apply defaults and TILEPROXY_* environment
overrides, and report every validation error.

Exits with status 2 when the configuration is invalid.

Examples:
  tileproxy validate --config config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ Configuration valid")
	fmt.Fprintf(out, "  listen address: %s\n", cfg.Proxy.ListenAddress)
	fmt.Fprintf(out, "  targets:        %d\n", len(cfg.Targets))
	fmt.Fprintf(out, "  cache ttl:      %s\n", cfg.Cache.TTL)
	if cfg.Directory.Enabled {
		fmt.Fprintf(out, "  directory:      %s (ttl %s)\n", cfg.Directory.URL, cfg.Directory.TTL)
	} else {
		fmt.Fprintln(out, "  directory:      disabled")
	}
	return nil
}

// loadConfig loads path with environment overrides. Failures are
// *cli.ConfigError.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError(path, err)
	}
	return cfg, nil
}
