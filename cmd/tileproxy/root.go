package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chaoszone/tileproxy/pkg/cli"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "tileproxy",
	Short: "Caching reverse proxy for map tiles and styles",
	Long: `tileproxy relays map tiles, styles, fonts and scripts from a fixed set of
upstream servers and caches the static ones.

  - GET /proxy/{target}/{path} forwards to the target's upstream
  - .json, .js and .css responses are cached for 24 hours
  - upstream URLs in JSON bodies and redirects point back at the proxy
  - GET /lookup returns the filtered directory entries`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (built-in defaults when empty)")
}
