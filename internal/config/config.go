package config

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"net/url"
	"strings"
	"time"
)

// The storage drivers the portal knows how to construct
const (
	StorageDriverPostgres = "postgres"
	StorageDriverInMemory = "inmem"
)

var (
	ErrMissingRegistryBaseURL = errors.New("the Symphony API base URL (SYMPHONY_API_BASE_URL) is required")
	ErrMissingPostgresDSN     = errors.New("a PostgreSQL DSN (POSTGRES_DSN) is required when using the postgres storage driver")
)

// Config represents the application configuration structure
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"prod"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`

	// UserCacheLifetime enables the in-memory user cache in front of the storage driver if positive
	UserCacheLifetime time.Duration `envconfig:"USER_CACHE_LIFETIME" default:"5m"`

	PortalAPIListenAddress string `envconfig:"PORTAL_API_LISTEN_ADDRESS" default:":8081"`
	PortalAPIBaseAddress   string `envconfig:"PORTAL_API_BASE_ADDRESS" default:"http://localhost:8081"`
	PortalAPIAllowedOrigin string `envconfig:"PORTAL_API_ALLOWED_ORIGIN" default:"http://localhost:3000"`

	OIDCProviderURL  string `envconfig:"OIDC_PROVIDER_URL"`
	OIDCClientID     string `envconfig:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `envconfig:"OIDC_CLIENT_SECRET"`

	SessionLifetime        time.Duration `envconfig:"SESSION_LIFETIME" default:"24h"`
	SessionCleanupInterval time.Duration `envconfig:"SESSION_CLEANUP_INTERVAL" default:"1m"`

	// SymphonyAPIBaseURL is concatenated with the registry path as-is, so it should end with a slash
	SymphonyAPIBaseURL string        `envconfig:"SYMPHONY_API_BASE_URL"`
	RegistryTimeout    time.Duration `envconfig:"REGISTRY_TIMEOUT" default:"10s"`
}

// LoadFromEnv loads a new configuration structure using environment variables and an optional .env file.
// The resulting configuration is validated before it is returned.
func LoadFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process("oe", config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration values that cannot be expressed using struct tags
func (config *Config) Validate() error {
	if config.SymphonyAPIBaseURL == "" {
		return ErrMissingRegistryBaseURL
	}
	parsed, err := url.Parse(config.SymphonyAPIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid Symphony API base URL: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("invalid Symphony API base URL '%s': an absolute http(s) URL is required", config.SymphonyAPIBaseURL)
	}

	switch config.StorageDriver {
	case StorageDriverPostgres:
		if config.PostgresDSN == "" {
			return ErrMissingPostgresDSN
		}
	case StorageDriverInMemory:
	default:
		return fmt.Errorf("unknown storage driver '%s'", config.StorageDriver)
	}

	if config.SessionLifetime <= 0 {
		return errors.New("the session lifetime has to be positive")
	}
	if config.SessionCleanupInterval <= 0 {
		return errors.New("the session cleanup interval has to be positive")
	}
	return nil
}

// IsEnvProduction returns whether the application runs in production mode
func (config *Config) IsEnvProduction() bool {
	return strings.EqualFold(config.Environment, "prod")
}

// IsPortalAPISecure returns whether the portal API is served via HTTPS
func (config *Config) IsPortalAPISecure() bool {
	return strings.HasPrefix(config.PortalAPIBaseAddress, "https://")
}

// HasRegistryTrailingSlash reports whether the registry base URL ends with a slash.
// The registry path is appended without a separator, so a missing slash produces a wrong endpoint.
func (config *Config) HasRegistryTrailingSlash() bool {
	return strings.HasSuffix(config.SymphonyAPIBaseURL, "/")
}

// Masked returns a copy of the configuration whose secrets are blanked out so it can be logged
func (config *Config) Masked() Config {
	cpy := *config
	if cpy.OIDCClientSecret != "" {
		cpy.OIDCClientSecret = "***"
	}
	if cpy.PostgresDSN != "" {
		cpy.PostgresDSN = "***"
	}
	return cpy
}
