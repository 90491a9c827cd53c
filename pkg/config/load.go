package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "PROTOKIT_"

// LoadConfig loads configuration from a YAML or TOML file at the specified path.
// The format is chosen by extension: .yaml and .yml are YAML, .toml is TOML.
// It applies default values, validates the configuration, and returns any errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Decode parses configuration bytes in the format named by ext (".yaml", ".yml" or ".toml").
// No defaults are applied.
func Decode(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported configuration format %q (use .yaml, .yml or .toml)", ext)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a file and applies
// environment variable overrides. Environment variables follow the naming
// convention PROTOKIT_SECTION_FIELD (e.g., PROTOKIT_CONTENT_PATH).
// Environment variables always take precedence over file-based configuration.
//
// An empty path starts from the defaults instead of a file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Content overrides
	if val := os.Getenv(EnvPrefix + "CONTENT_PATH"); val != "" {
		cfg.Content.Path = val
	}
	if val := os.Getenv(EnvPrefix + "CONTENT_EXTENSIONS"); val != "" {
		cfg.Content.Extensions = splitList(val)
	}
	if val := os.Getenv(EnvPrefix + "CONTENT_MAX_FILE_SIZE"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Content.MaxFileSize = i
		}
	}
	setBool(EnvPrefix+"CONTENT_INCLUDE_HIDDEN", &cfg.Content.IncludeHidden)
	setBool(EnvPrefix+"CONTENT_FOLLOW_SYMLINKS", &cfg.Content.FollowSymlinks)
	if val := os.Getenv(EnvPrefix + "CONTENT_GIT_REPOSITORY"); val != "" {
		cfg.Content.Git.Repository = val
	}
	if val := os.Getenv(EnvPrefix + "CONTENT_GIT_BRANCH"); val != "" {
		cfg.Content.Git.Branch = val
	}
	if val := os.Getenv(EnvPrefix + "CONTENT_GIT_TOKEN"); val != "" {
		cfg.Content.Git.Auth.Type = "token"
		cfg.Content.Git.Auth.Token = val
	}

	// Parser overrides
	if val := os.Getenv(EnvPrefix + "PARSER_STANDARD_NAMESPACE"); val != "" {
		cfg.Parser.StandardNamespace = val
	}
	setBool(EnvPrefix+"PARSER_INCLUDE_CONTEXT", &cfg.Parser.IncludeContext)
	if val := os.Getenv(EnvPrefix + "PARSER_CONTEXT_LINES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Parser.ContextLines = i
		}
	}
	setBool(EnvPrefix+"PARSER_STRICT", &cfg.Parser.Strict)

	// Watch overrides
	setBool(EnvPrefix+"WATCH_ENABLED", &cfg.Watch.Enabled)
	if val := os.Getenv(EnvPrefix + "WATCH_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Watch.Debounce = NewDuration(d)
		}
	}
	if val, ok := os.LookupEnv(EnvPrefix + "WATCH_RESCAN_SCHEDULE"); ok {
		cfg.Watch.RescanSchedule = val
	}

	// Snapshot overrides
	setBool(EnvPrefix+"SNAPSHOT_ENABLED", &cfg.Snapshot.Enabled)
	if val := os.Getenv(EnvPrefix + "SNAPSHOT_PATH"); val != "" {
		cfg.Snapshot.Path = val
	}

	// Telemetry overrides
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	setBool(EnvPrefix+"TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.ListenAddress = val
	}
	setBool(EnvPrefix+"TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}

func setBool(name string, target *bool) {
	if val := os.Getenv(name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*target = b
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
