package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure for protokit.
// It contains the content source, parser, watch, snapshot and telemetry sections.
type Config struct {
	// Content describes where prototype documents live and which files count as documents.
	Content ContentConfig `yaml:"content" toml:"content"`

	// Parser contains prototype parser settings.
	Parser ParserConfig `yaml:"parser" toml:"parser"`

	// Watch contains hot-reload settings for the content directory.
	Watch WatchConfig `yaml:"watch" toml:"watch"`

	// Snapshot contains settings for the SQLite catalog export.
	Snapshot SnapshotConfig `yaml:"snapshot" toml:"snapshot"`

	// Telemetry contains logging, metrics and health endpoint settings.
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
}

// ContentConfig contains configuration for the content directory.
type ContentConfig struct {
	// Path is the directory (or single file) holding prototype documents.
	// Default: "./content"
	Path string `yaml:"path" toml:"path"`

	// Extensions lists the file extensions treated as prototype documents.
	// Default: [".xml"]
	Extensions []string `yaml:"extensions" toml:"extensions"`

	// MaxFileSize is the largest document accepted, in bytes.
	// Default: 16MB
	MaxFileSize int64 `yaml:"max_file_size" toml:"max_file_size"`

	// IncludeHidden loads files and directories whose name starts with a dot.
	// Default: false
	IncludeHidden bool `yaml:"include_hidden" toml:"include_hidden"`

	// FollowSymlinks follows symbolic links while walking the content directory.
	// Default: false
	FollowSymlinks bool `yaml:"follow_symlinks" toml:"follow_symlinks"`

	// Git syncs the content directory from a Git repository before every load.
	Git GitConfig `yaml:"git" toml:"git"`
}

// GitConfig configures a Git repository as the content source. When Repository
// is set, content.path is resolved inside the local clone.
type GitConfig struct {
	// Repository URL (HTTPS, SSH or a local path).
	// Example: "https://github.com/studio/game-content.git"
	Repository string `yaml:"repository" toml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch" toml:"branch"`

	// LocalPath is where the repository is cloned.
	// Default: "data/content-repo"
	LocalPath string `yaml:"local_path" toml:"local_path"`

	// Depth for shallow clones (0 = full clone).
	// Default: 1
	Depth int `yaml:"depth" toml:"depth"`

	// Timeout bounds every clone or pull.
	// Default: 30s
	Timeout Duration `yaml:"timeout" toml:"timeout"`

	// Auth configures Git authentication.
	Auth GitAuthConfig `yaml:"auth" toml:"auth"`
}

// Enabled reports whether a repository is configured.
func (g *GitConfig) Enabled() bool {
	return g.Repository != ""
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type: "token", "ssh" or "none".
	// Default: "none"
	Type string `yaml:"type" toml:"type"`

	// Token for HTTPS authentication. Required when Type is "token".
	Token string `yaml:"token" toml:"token"`

	// SSHKeyPath for SSH authentication. Required when Type is "ssh".
	SSHKeyPath string `yaml:"ssh_key_path" toml:"ssh_key_path"`

	// SSHKeyPassphrase for encrypted SSH keys.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase" toml:"ssh_key_passphrase"`
}

// ParserConfig contains configuration for the prototype parser.
type ParserConfig struct {
	// StandardNamespace is prefixed to bare type names.
	// Default: "Game"
	StandardNamespace string `yaml:"standard_namespace" toml:"standard_namespace"`

	// IncludeContext attaches source excerpts to diagnostics.
	// Default: false
	IncludeContext bool `yaml:"include_context" toml:"include_context"`

	// ContextLines is the number of lines shown around a diagnostic.
	// Default: 2
	ContextLines int `yaml:"context_lines" toml:"context_lines"`

	// MaxDocumentSize is the largest document the parser accepts, in bytes.
	// Default: 16MB
	MaxDocumentSize int64 `yaml:"max_document_size" toml:"max_document_size"`

	// Strict makes lint fail on warnings as well as errors.
	// Default: false
	Strict bool `yaml:"strict" toml:"strict"`
}

// WatchConfig contains configuration for content hot reload.
type WatchConfig struct {
	// Enabled turns on the fsnotify watcher in `protokit watch`.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Debounce is the quiet period after the last file event before reloading.
	// Default: 100ms
	Debounce Duration `yaml:"debounce" toml:"debounce"`

	// RescanSchedule is a standard cron expression for periodic full reloads.
	// Empty disables the scheduler.
	RescanSchedule string `yaml:"rescan_schedule" toml:"rescan_schedule"`
}

// SnapshotConfig contains configuration for the SQLite snapshot store.
type SnapshotConfig struct {
	// Enabled stores every successful catalog load.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Path is the database file path.
	// Default: "data/protokit.db"
	Path string `yaml:"path" toml:"path"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout Duration `yaml:"busy_timeout" toml:"busy_timeout"`

	// MaxOpenConns caps the connection pool.
	// Default: 1
	MaxOpenConns int `yaml:"max_open_conns" toml:"max_open_conns"`

	// Retain is how many runs to keep; older runs are pruned after each save.
	// Default: 0 (keep everything)
	Retain int `yaml:"retain" toml:"retain"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`

	// Health contains health endpoint configuration.
	Health HealthConfig `yaml:"health" toml:"health"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing" toml:"tracing"`

	// ListenAddress is where `protokit watch` serves metrics and health endpoints.
	// Empty disables the HTTP server.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address" toml:"listen_address"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" toml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format" toml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source" toml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" toml:"path"`

	// Namespace is the metric name prefix.
	// Default: "protokit"
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// HealthConfig contains health endpoint configuration.
type HealthConfig struct {
	// LivenessPath answers as long as the process runs.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path" toml:"liveness_path"`

	// ReadinessPath answers once a catalog has been loaded.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path" toml:"readiness_path"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled exports a span per catalog load and per parsed document.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler" toml:"sampler"`

	// SampleRatio is the fraction of traces to sample when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint" toml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure" toml:"insecure"`

	// ServiceName is the service name in traces.
	// Default: "protokit"
	ServiceName string `yaml:"service_name" toml:"service_name"`
}

// Duration is a time.Duration written as a Go duration string ("250ms", "5s")
// in both YAML and TOML files.
type Duration struct {
	time.Duration
}

// NewDuration wraps d.
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText writes the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
