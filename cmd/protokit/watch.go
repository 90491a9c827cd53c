package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"unitytk/protokit/pkg/catalog"
	"unitytk/protokit/pkg/cli"
	"unitytk/protokit/pkg/snapshot"
	"unitytk/protokit/pkg/telemetry/metrics"
	"unitytk/protokit/pkg/telemetry/tracing"
)

var watchFlags struct {
	path   string
	listen string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the catalog loaded and reload it on change",
	Long: `Load the catalog and keep it current until interrupted.

Reloads are triggered by file changes (watch.enabled), by the rescan schedule
(watch.rescan_schedule) and by SIGHUP. A reload that hits a malformed document
keeps the previous catalog.

While running, the command serves on telemetry.listen_address:
  - Prometheus metrics (telemetry.metrics.path)
  - Liveness and readiness (telemetry.health)
  - /version, /catalog and /prototypes/{id}

Examples:
  # Watch with config
  protokit watch --config protokit.yaml

  # Override the content path and listen address
  protokit watch --path content/ --listen 0.0.0.0:9464`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.path, "path", "p", "", "content directory or file (overrides config)")
	watchCmd.Flags().StringVarP(&watchFlags.listen, "listen", "l", "", "override listen address")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	overrideContentPath(cfg, watchFlags.path)
	if watchFlags.listen != "" {
		cfg.Telemetry.ListenAddress = watchFlags.listen
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", "failed to initialize tracing", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", "error", err)
		}
	}()

	m, err := newManager(cfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	m.WithTracer(tracer.Tracer())

	var (
		recorders cli.MultiRecorder
		collector *metrics.Collector
	)
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		recorders = append(recorders, collector)
		m.OnLoad(collector.CatalogHook())
	}
	if verbose {
		recorders = append(recorders, cli.NewProgress(cmd.ErrOrStderr()))
	}
	if len(recorders) > 0 {
		m.WithRecorder(recorders)
	}

	if cfg.Snapshot.Enabled {
		store, err := snapshot.Open(ctx, &cfg.Snapshot, logger)
		if err != nil {
			return cli.NewCommandError("watch", err)
		}
		defer store.Close()
		m.OnLoad(store.Hook(ctx))
	}

	// A failed first load is not fatal: readiness stays down until a reload succeeds.
	if _, err := m.Load(); err != nil {
		logger.Error("Initial catalog load failed", "error", err)
	}

	if addr := cfg.Telemetry.ListenAddress; addr != "" {
		srv, err := startServer(addr, newMux(cfg, m, collector, logger), logger)
		if err != nil {
			return cli.NewCommandError("watch", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to stop HTTP server", "error", err)
			}
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on http://%s\n", addr)
	}

	go reloadOnHangup(ctx, m, logger)

	if cfg.Watch.Enabled || cfg.Watch.RescanSchedule != "" {
		if err := m.Watch(ctx); err != nil {
			return cli.NewCommandError("watch", err)
		}
	} else {
		logger.Info("File watching and rescans are disabled; reload with SIGHUP")
		<-ctx.Done()
	}

	logger.Info("Shutting down")
	return nil
}

// startServer listens on addr before returning so bind errors surface immediately.
func startServer(addr string, handler http.Handler, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()
	logger.Info("HTTP server listening", "address", ln.Addr().String())
	return srv, nil
}

func reloadOnHangup(ctx context.Context, m *catalog.Manager, logger *slog.Logger) {
	hup, stop := cli.ReloadSignal()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("Reload requested by SIGHUP")
			if _, err := m.Reload(); err != nil {
				logger.Error("Reload failed", "error", err)
			}
		}
	}
}
