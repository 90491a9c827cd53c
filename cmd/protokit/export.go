package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"unitytk/protokit/pkg/cli"
	"unitytk/protokit/pkg/snapshot"
)

var exportFlags struct {
	path   string
	db     string
	retain int
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Store the catalog in the snapshot database",
	Long: `Load the catalog and store it, with its diagnostics, in the SQLite
snapshot database. Each export is one run keyed by the load's run id.

Examples:
  # Export to the configured database (snapshot.path)
  protokit export

  # Export to a specific database, keeping the last 10 runs
  protokit export --db build/content.db --retain 10`,
	RunE: exportCatalog,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFlags.path, "path", "p", "", "content directory or file (overrides config)")
	exportCmd.Flags().StringVar(&exportFlags.db, "db", "", "snapshot database path (overrides snapshot.path)")
	exportCmd.Flags().IntVar(&exportFlags.retain, "retain", -1, "runs to keep after the export (overrides snapshot.retain)")
}

func exportCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	overrideContentPath(cfg, exportFlags.path)
	if exportFlags.db != "" {
		cfg.Snapshot.Path = exportFlags.db
	}
	if exportFlags.retain >= 0 {
		cfg.Snapshot.Retain = exportFlags.retain
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

	res, err := m.Load()
	if err != nil {
		_ = (&cli.TextFormatter{}).FormatTo(cmd.ErrOrStderr(), cli.NewReport(res))
		return cli.NewCommandError("export", err)
	}

	ctx := cmd.Context()
	store, err := snapshot.Open(ctx, &cfg.Snapshot, logger)
	if err != nil {
		return cli.NewCommandError("export", err)
	}
	defer store.Close()

	if err := store.Save(ctx, res, m.Catalog()); err != nil {
		return cli.NewCommandError("export", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Stored run %s in %s\n", res.RunID, store.Path())
	fmt.Fprintf(w, "  %d prototype(s), %d error(s), %d warning(s)\n", res.Instances, res.Diagnostics.Count(), res.Warnings.Count())
	fmt.Fprintf(w, "  catalog version %s\n", res.Version)
	return nil
}
