package config

import "time"

// Default values for configuration fields.
const (
	// Content defaults
	DefaultContentPath      = "./content"
	DefaultContentExtension = ".xml"
	DefaultMaxFileSize      = 16 * 1024 * 1024

	// Git defaults
	DefaultGitBranch    = "main"
	DefaultGitLocalPath = "data/content-repo"
	DefaultGitDepth     = 1
	DefaultGitTimeout   = 30 * time.Second
	DefaultGitAuthType  = "none"

	// Parser defaults
	DefaultStandardNamespace = "Game"
	DefaultContextLines      = 2
	DefaultMaxDocumentSize   = 16 * 1024 * 1024

	// Watch defaults
	DefaultWatchDebounce = 100 * time.Millisecond

	// Snapshot defaults
	DefaultSnapshotPath         = "data/protokit.db"
	DefaultSnapshotBusyTimeout  = 5 * time.Second
	DefaultSnapshotMaxOpenConns = 1

	// Telemetry defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"
	DefaultMetricsPath   = "/metrics"
	DefaultMetricsPrefix = "protokit"
	DefaultLivenessPath  = "/health"
	DefaultReadinessPath = "/ready"
	DefaultListenAddress = "127.0.0.1:9464"

	// Tracing defaults
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "protokit"
)

// Default returns a configuration holding only default values.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Content defaults
	if cfg.Content.Path == "" {
		cfg.Content.Path = DefaultContentPath
	}
	if len(cfg.Content.Extensions) == 0 {
		cfg.Content.Extensions = []string{DefaultContentExtension}
	}
	if cfg.Content.MaxFileSize == 0 {
		cfg.Content.MaxFileSize = DefaultMaxFileSize
	}

	// Git defaults, only meaningful once a repository is set
	if cfg.Content.Git.Branch == "" {
		cfg.Content.Git.Branch = DefaultGitBranch
	}
	if cfg.Content.Git.LocalPath == "" {
		cfg.Content.Git.LocalPath = DefaultGitLocalPath
	}
	if cfg.Content.Git.Depth == 0 {
		cfg.Content.Git.Depth = DefaultGitDepth
	}
	if cfg.Content.Git.Timeout.Duration == 0 {
		cfg.Content.Git.Timeout = NewDuration(DefaultGitTimeout)
	}
	if cfg.Content.Git.Auth.Type == "" {
		cfg.Content.Git.Auth.Type = DefaultGitAuthType
	}

	// Parser defaults
	if cfg.Parser.StandardNamespace == "" {
		cfg.Parser.StandardNamespace = DefaultStandardNamespace
	}
	if cfg.Parser.ContextLines == 0 {
		cfg.Parser.ContextLines = DefaultContextLines
	}
	if cfg.Parser.MaxDocumentSize == 0 {
		cfg.Parser.MaxDocumentSize = DefaultMaxDocumentSize
	}

	// Watch defaults
	if cfg.Watch.Debounce.Duration == 0 {
		cfg.Watch.Debounce = NewDuration(DefaultWatchDebounce)
	}

	// Snapshot defaults
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = DefaultSnapshotPath
	}
	if cfg.Snapshot.BusyTimeout.Duration == 0 {
		cfg.Snapshot.BusyTimeout = NewDuration(DefaultSnapshotBusyTimeout)
	}
	if cfg.Snapshot.MaxOpenConns == 0 {
		cfg.Snapshot.MaxOpenConns = DefaultSnapshotMaxOpenConns
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsPrefix
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.ListenAddress == "" {
		cfg.Telemetry.ListenAddress = DefaultListenAddress
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}
