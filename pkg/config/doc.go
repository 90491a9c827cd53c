// Package config provides configuration management for protokit.
//
// Configuration is read from a YAML (.yaml, .yml) or TOML (.toml) file, completed
// with defaults, overridden from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("protokit.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PROTOKIT_SECTION_FIELD:
//
//   - PROTOKIT_CONTENT_PATH overrides content.path
//   - PROTOKIT_PARSER_STANDARD_NAMESPACE overrides parser.standard_namespace
//   - PROTOKIT_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the configuration file
//  3. Environment variable overrides
//  4. Validation, reporting every invalid field at once
//
// # Example
//
//	content:
//	  path: ./content
//	  extensions: [".xml"]
//	parser:
//	  standard_namespace: Game
//	  include_context: true
//	watch:
//	  enabled: true
//	  debounce: 100ms
//	  rescan_schedule: "0 * * * *"
//	snapshot:
//	  enabled: true
//	  path: data/protokit.db
//	  retain: 20
//	git:
//	  repository: https://example.com/game/content.git
//	  branch: main
//	telemetry:
//	  logging:
//	    level: info
//	    format: text
//	  metrics:
//	    enabled: true
package config
