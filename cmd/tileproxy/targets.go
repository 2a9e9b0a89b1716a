package main

import (
	"github.com/spf13/cobra"

	"chaoszone/tileproxy/pkg/cli"
	"chaoszone/tileproxy/pkg/proxy"
)

var targetsFlags struct {
	output string
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the configured proxy targets",
	Long: `List every target name and the upstream base URL it forwards to.

Examples:
  tileproxy targets
  tileproxy targets --output json`,
	RunE: listTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)

	targetsCmd.Flags().StringVarP(&targetsFlags.output, "output", "o", "text", "output format: text, json")
}

func listTargets(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(targetsFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}

	registry := proxy.NewTargetRegistry(cfg.Targets)
	table := cli.Table{Headers: []string{"NAME", "UPSTREAM"}}
	for _, name := range registry.Names() {
		upstream, _ := registry.Resolve(name)
		table.Rows = append(table.Rows, []string{name, upstream})
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}
