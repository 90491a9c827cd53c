package main

import (
	"fmt"
	"io"
	"log/slog"

	"unitytk/protokit/pkg/catalog"
	"unitytk/protokit/pkg/cli"
	"unitytk/protokit/pkg/config"
	"unitytk/protokit/pkg/content"
	"unitytk/protokit/pkg/gitsource"
	"unitytk/protokit/pkg/prototype/parser"
	"unitytk/protokit/pkg/telemetry/logging"
)

// loadConfig reads --config and PROTOKIT_* overrides. Without --config the
// defaults are used.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", "failed to load config", err)
	}
	return cfg, nil
}

// overrideContentPath points cfg at a local path and turns off the Git source.
func overrideContentPath(cfg *config.Config, path string) {
	if path == "" {
		return
	}
	cfg.Content.Path = path
	cfg.Content.Git = config.GitConfig{}
}

// newLogger builds the command logger. One-shot commands only log warnings
// unless --verbose is set; their results go to stdout.
func newLogger(cfg *config.Config, w io.Writer, oneShot bool) (*slog.Logger, error) {
	lc := cfg.Telemetry.Logging
	switch {
	case verbose:
		lc.Level = "debug"
	case oneShot:
		if level, err := logging.ParseLevel(lc.Level); err == nil && level < slog.LevelWarn {
			lc.Level = "warn"
		}
	}

	logger, err := logging.FromConfig(&lc, w)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", "invalid logging configuration", err)
	}
	return logger, nil
}

// newManager wires the parser over the sample content assembly and, when a
// repository is configured, the Git content source.
func newManager(cfg *config.Config, logger *slog.Logger) (*catalog.Manager, error) {
	p := parser.NewParser(content.Universe()).
		WithLogger(logger).
		WithContextLines(cfg.Parser.ContextLines)
	if cfg.Parser.MaxDocumentSize > 0 {
		p.WithMaxDocumentSize(cfg.Parser.MaxDocumentSize)
	}

	m, err := catalog.NewManager(cfg, p, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog manager: %w", err)
	}

	if cfg.Content.Git.Enabled() {
		repo, err := gitsource.NewRepository(&cfg.Content.Git, cfg.Content.Path, logger)
		if err != nil {
			return nil, cli.NewConfigError("content.git", "invalid git source", err)
		}
		m.WithSource(repo)
	}
	return m, nil
}
