/*
Package cli provides command-line helpers for the protokit command.

Output Formatting:

Load results are converted into a Report and written in one of three formats:

	report := cli.NewReport(result)
	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Text output prints one line per diagnostic ("source:line:col: error [kind] ...")
followed by a summary. CSV output prints one row per diagnostic for spreadsheets
and CI annotations.

Progress Reporting:

Progress implements catalog.Recorder and prints a line per parsed document:

	manager.WithRecorder(cli.MultiRecorder{collector, cli.NewProgress(os.Stderr)})

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

SIGHUP requests a reload through ReloadSignal.
*/
package cli
