package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"unitytk/protokit/pkg/catalog"
	"unitytk/protokit/pkg/config"
	"unitytk/protokit/pkg/telemetry/health"
	"unitytk/protokit/pkg/telemetry/metrics"
)

// newMux serves metrics, health and a read-only view of the live catalog.
// collector may be nil when metrics are disabled.
func newMux(cfg *config.Config, m *catalog.Manager, collector *metrics.Collector, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	if collector != nil {
		mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
	}

	checker := health.New(5 * time.Second)
	checker.RegisterCheck("catalog", health.CatalogCheck(m))
	checker.RegisterCheck("content", health.ContentCheck(m.Root()))
	health.Mount(mux, checker, &cfg.Telemetry.Health, health.VersionHandler(Version, GitCommit, BuildDate, m.Version))

	mux.HandleFunc("GET /catalog", func(w http.ResponseWriter, r *http.Request) {
		stats := m.Catalog().Stats()
		body := map[string]any{
			"version":     stats.Version,
			"loaded_at":   stats.LoadTime,
			"instances":   stats.Instances,
			"descriptors": stats.Descriptors,
			"documents":   stats.Documents,
			"by_type":     stats.ByType,
		}
		if res := m.LastResult(); res != nil {
			body["last_run_id"] = res.RunID
			body["last_applied"] = res.Applied
		}
		writeJSON(w, logger, http.StatusOK, body)
	})

	mux.HandleFunc("GET /prototypes/{id}", func(w http.ResponseWriter, r *http.Request) {
		e, err := m.Get(r.PathValue("id"))
		if err != nil {
			writeJSON(w, logger, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, logger, http.StatusOK, newDumpEntry(e))
	})

	return mux
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
