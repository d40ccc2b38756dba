package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering, lowest to highest precedence:
//  1. defaults (New)
//  2. .env file in the working directory, if present (godotenv)
//  3. YAML file named by PLINTH_CONFIG, if set
//  4. environment variables with the PLINTH_ prefix
func Load(ctx context.Context) (*Config, error) {
	// .env only seeds the process environment; a missing file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: .env: %w", ErrLoadConfig, err)
	}

	k := koanf.New(".")

	if path := os.Getenv("PLINTH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PLINTH_DATABASE_URL -> database_url, keeping underscores to match
	// the koanf tags on the struct.
	envProvider := env.Provider("PLINTH_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "plinth_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PoolMaxConns <= 0:
		return fmt.Errorf("%w: pool_max_conns must be positive", ErrInvalidConfig)
	case c.PoolAcquireTimeoutMS < 0:
		return fmt.Errorf("%w: pool_acquire_timeout_ms must not be negative", ErrInvalidConfig)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case c.ListLimit <= 0:
		return fmt.Errorf("%w: list_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
