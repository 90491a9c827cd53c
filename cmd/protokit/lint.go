package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"unitytk/protokit/pkg/cli"
)

var lintFlags struct {
	path   string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate prototype documents",
	Long: `Parse every prototype document and report all diagnostics.

The lint command runs a full catalog load without keeping the result:
  - Markup validation (malformed documents)
  - Identifier checks (missing and duplicate ids)
  - Inheritance resolution across documents (unresolved parents, cycles)
  - Field validation (unknown fields, malformed literals, missing required fields)
  - Reference resolution (prototypes named by other prototypes)

Examples:
  # Lint the configured content directory
  protokit lint

  # Lint a directory
  protokit lint --path content/

  # Strict mode (warnings as errors)
  protokit lint --strict

  # CSV output for spreadsheets, JSON for CI/CD
  protokit lint --format csv
  protokit lint --format json`,
	RunE: lintContent,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.path, "path", "p", "", "content directory or file (overrides config)")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json, csv")
}

func lintContent(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(lintFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	overrideContentPath(cfg, lintFlags.path)
	if verbose && format == cli.FormatText {
		cfg.Parser.IncludeContext = true
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	m, err := newManager(cfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	if verbose {
		m.WithRecorder(cli.NewProgress(cmd.ErrOrStderr()))
	}

	// A fatal load error is part of the report; Failed below turns it into the exit status.
	res, _ := m.Check()
	report := cli.NewReport(res)

	var formatter cli.Formatter = &cli.TextFormatter{Verbose: verbose}
	if format != cli.FormatText {
		formatter = cli.NewFormatter(format)
	}
	if err := formatter.FormatTo(cmd.OutOrStdout(), report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	strict := lintFlags.strict || cfg.Parser.Strict
	if report.Failed(strict) {
		if strict && report.Errors == 0 && len(report.Fatal) == 0 {
			return cli.NewCommandError("lint", errors.New("validation failed: strict mode treats warnings as errors"))
		}
		return cli.NewCommandError("lint", errors.New("validation failed"))
	}
	return nil
}
