// Protokit loads XML prototype documents into a typed, inheritance-resolved
// catalog of game content.
//
// It provides:
//   - Linting of prototype documents with structured diagnostics
//   - JSON dumps of the resolved catalog
//   - SQLite snapshots of catalog loads
//   - A watch mode with hot reload, Prometheus metrics and health endpoints
//
// Usage:
//
//	# Lint the content directory from config.yaml
//	protokit lint
//
//	# Lint a directory directly, failing on warnings
//	protokit lint --path content/ --strict
//
//	# Print the resolved catalog as JSON
//	protokit dump --type Weapon
//
//	# Store the catalog in the snapshot database
//	protokit export --db data/protokit.db
//
//	# Reload on change and serve metrics
//	protokit watch --config protokit.yaml
//
//	# Show version information
//	protokit version
package main

func main() {
	Execute()
}
