// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load() layers defaults, optional YAML file, and environment.
// - External errors must be wrapped via this package's error kinds.
package config

// Store backend names accepted in store_backend.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoder: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the event store: memory or postgres.
	StoreBackend string `koanf:"store_backend"`

	// PostgresDSN is the connection string used when StoreBackend is
	// postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// MaxListLimit caps GET /api/events?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// DefaultListLimit applies when no limit query parameter is given.
	DefaultListLimit int `koanf:"default_list_limit"`

	// SeedOnStart populates an empty store with demo data at startup.
	SeedOnStart bool `koanf:"seed_on_start"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8080",
		StoreBackend:     StoreMemory,
		PostgresDSN:      "",
		MaxListLimit:     1000,
		DefaultListLimit: 100,
		SeedOnStart:      false,
	}
}
