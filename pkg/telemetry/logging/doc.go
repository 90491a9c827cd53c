// Package logging builds the structured logger used by every protokit command.
//
// Loggers are plain *slog.Logger values so packages can accept them without
// depending on this package. Components add their own "component" attribute
// and catalog loads add a "run_id" to every record they emit.
//
// # Usage
//
//	logger, err := logging.FromConfig(&cfg.Telemetry.Logging, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	logger.Info("Catalog loaded", "instances", 42, "duration_ms", 3)
//
// # Formats
//
//   - text: key=value pairs, the default for terminals
//   - json: one object per line for log shippers
package logging
