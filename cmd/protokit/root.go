package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"unitytk/protokit/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "protokit",
	Short: "Protokit - typed prototype catalogs from XML content",
	Long: `Protokit parses XML prototype documents into a catalog of typed game content.

Prototypes may inherit from each other across documents, be abstract, override
their type and refer to other prototypes. Every problem is reported as a
structured diagnostic instead of stopping at the first one.

Configuration is read from a YAML or TOML file (--config) and PROTOKIT_*
environment variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
