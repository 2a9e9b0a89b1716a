/*
Package cli provides command-line helpers used by the tileproxy command.

Output Formatting:

Commands that list things render a Table as aligned text or as JSON:

	table := cli.Table{Headers: []string{"NAME", "UPSTREAM"}}
	table.Rows = append(table.Rows, []string{"tiles", "https://tiles.example.org/"})
	if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Errors and Exit Codes:

ExitCode maps configuration and validation failures to exit status 2 and
any other error to 1.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
