// Package health provides liveness, readiness and version endpoints for
// `protokit watch`.
//
// # Endpoints
//
//   - liveness (default /health): the process is running
//   - readiness (default /ready): a catalog has been loaded and the content
//     path is reachable
//   - /version: build information and the live catalog version
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("catalog", health.CatalogCheck(manager))
//	checker.RegisterCheck("content", health.ContentCheck(cfg.Content.Path))
//	health.Mount(mux, checker, &cfg.Telemetry.Health,
//	    health.VersionHandler(version, commit, buildTime, manager.Version))
package health
