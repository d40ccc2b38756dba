// Package config defines process configuration and its loading order.
//
// Conventions:
// - Provide New() for defaults and Load(ctx) for the full layering.
// - External errors are wrapped via this package's sentinels.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL selects the store: a postgres:// URL for PostgreSQL,
	// empty for the in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// PoolMaxConns bounds the database connection pool.
	PoolMaxConns int `koanf:"pool_max_conns"`

	// PoolAcquireTimeoutMS bounds how long a request waits for a pooled
	// connection before failing as transient.
	PoolAcquireTimeoutMS int `koanf:"pool_acquire_timeout_ms"`

	// MaxBodyBytes bounds request body reads.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// ListLimit caps records per list response.
	ListLimit int `koanf:"list_limit"`

	// MigrateOnStart creates missing tables at startup (Postgres only).
	MigrateOnStart bool `koanf:"migrate_on_start"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		DatabaseURL:          "",
		PoolMaxConns:         8,
		PoolAcquireTimeoutMS: 5_000,
		MaxBodyBytes:         1 << 20,
		ListLimit:            100,
		MigrateOnStart:       true,
	}
}
