// Package config provides configuration management for the venue server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultAuthMode        = "none"
	DefaultAllowAnonymous  = true
	DefaultItemsPerPage    = 12
	DefaultStoreBackend    = StoreBackendMemory
	DefaultMongoDatabase   = "venuelist"
	DefaultMongoTimeout    = 10 * time.Second
)

// Store backends.
const (
	StoreBackendMemory  = "memory"
	StoreBackendMongoDB = "mongodb"
)

// maxItemsPerPage bounds the configured page size.
const maxItemsPerPage = 100

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvAuthMode        = "APP_AUTH_MODE"
	EnvAllowAnonymous  = "APP_ALLOW_ANONYMOUS"
	EnvBasicAuthUsers  = "APP_BASIC_AUTH_USERS"
	EnvAPIKeys         = "APP_API_KEYS" //nolint:gosec // env var name, not a credential
	EnvItemsPerPage    = "APP_ITEMS_PER_PAGE"
	EnvStoreBackend    = "APP_STORE_BACKEND"
	EnvMongoURI        = "APP_MONGODB_URI"
	EnvMongoDatabase   = "APP_MONGODB_DATABASE"
	EnvMongoTimeout    = "APP_MONGODB_TIMEOUT"
	EnvSeedFile        = "APP_SEED_FILE"
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// Authentication mode: none, basic, apikey, multi.
	AuthMode string
	// AllowAnonymous lets requests without credentials browse as an
	// anonymous viewer when an auth mode is set.
	AllowAnonymous bool

	// Basic auth settings (format: "user1:bcrypt_hash,user2:bcrypt_hash").
	BasicAuthUsers string

	// API key settings (format: "key1:name1,key2:name2").
	APIKeys string

	// Presentation settings.
	ItemsPerPage int

	// Storage settings.
	StoreBackend  string
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration
	SeedFile      string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidAuthMode        = errors.New(
		"auth mode must be one of: none, basic, apikey, multi",
	)
	ErrInvalidBasicAuthConfig = errors.New(
		"basic auth users must be set when auth mode is basic",
	)
	ErrInvalidAPIKeyConfig = errors.New(
		"API keys must be set when auth mode is apikey",
	)
	ErrInvalidMultiAuthConfig = errors.New(
		"at least one auth config must be provided when auth mode is multi",
	)
	ErrInvalidItemsPerPage = errors.New("items per page must be between 1 and 100")
	ErrInvalidStoreBackend = errors.New("store backend must be one of: memory, mongodb")
	ErrInvalidMongoConfig  = errors.New(
		"MongoDB URI and database must be set when store backend is mongodb",
	)
	ErrInvalidMongoTimeout = errors.New("MongoDB timeout must be positive")
)

// Load reads configuration from environment variables with defaults.
// Environment variables have priority over default values.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		AuthMode:        DefaultAuthMode,
		AllowAnonymous:  DefaultAllowAnonymous,
		ItemsPerPage:    DefaultItemsPerPage,
		StoreBackend:    DefaultStoreBackend,
		MongoDatabase:   DefaultMongoDatabase,
		MongoTimeout:    DefaultMongoTimeout,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// envSetter applies the raw value of one environment variable.
type envSetter func(val string) error

func setString(dst *string) envSetter {
	return func(val string) error {
		*dst = val
		return nil
	}
}

func setInt(dst *int) envSetter {
	return func(val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setBool(dst *bool) envSetter {
	return func(val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func setDuration(dst *time.Duration) envSetter {
	return func(val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

// loadFromEnv overrides c with every variable that is set and non-empty.
func (c *Config) loadFromEnv() error {
	vars := []struct {
		name string
		set  envSetter
	}{
		{EnvServerPort, setInt(&c.ServerPort)},
		{EnvLogLevel, setString(&c.LogLevel)},
		{EnvShutdownTimeout, setDuration(&c.ShutdownTimeout)},
		{EnvMetricsEnabled, setBool(&c.MetricsEnabled)},
		{EnvItemsPerPage, setInt(&c.ItemsPerPage)},
		{EnvAuthMode, setString(&c.AuthMode)},
		{EnvAllowAnonymous, setBool(&c.AllowAnonymous)},
		{EnvBasicAuthUsers, setString(&c.BasicAuthUsers)},
		{EnvAPIKeys, setString(&c.APIKeys)},
		{EnvStoreBackend, setString(&c.StoreBackend)},
		{EnvMongoURI, setString(&c.MongoURI)},
		{EnvMongoDatabase, setString(&c.MongoDatabase)},
		{EnvMongoTimeout, setDuration(&c.MongoTimeout)},
		{EnvSeedFile, setString(&c.SeedFile)},
	}

	for _, v := range vars {
		val := os.Getenv(v.name)
		if val == "" {
			continue
		}
		if err := v.set(val); err != nil {
			return fmt.Errorf("parsing %s: %w", v.name, err)
		}
	}
	return nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	for _, validate := range []func() error{c.validateServer, c.validateAuth, c.validateStore} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if c.ItemsPerPage < 1 || c.ItemsPerPage > maxItemsPerPage {
		return ErrInvalidItemsPerPage
	}

	return nil
}

// validateAuth validates authentication configuration.
func (c *Config) validateAuth() error {
	switch c.authModeOrDefault() {
	case "none":
	case "basic":
		if c.BasicAuthUsers == "" {
			return ErrInvalidBasicAuthConfig
		}
	case "apikey":
		if c.APIKeys == "" {
			return ErrInvalidAPIKeyConfig
		}
	case "multi":
		if c.BasicAuthUsers == "" && c.APIKeys == "" {
			return ErrInvalidMultiAuthConfig
		}
	default:
		return ErrInvalidAuthMode
	}

	return nil
}

// validateStore validates storage configuration.
func (c *Config) validateStore() error {
	switch c.StoreBackend {
	case StoreBackendMemory:
	case StoreBackendMongoDB:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return ErrInvalidMongoConfig
		}
		if c.MongoTimeout <= 0 {
			return ErrInvalidMongoTimeout
		}
	default:
		return ErrInvalidStoreBackend
	}

	return nil
}

// authModeOrDefault returns the auth mode, defaulting to "none" if empty.
func (c *Config) authModeOrDefault() string {
	if c.AuthMode == "" {
		return DefaultAuthMode
	}
	return c.AuthMode
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
