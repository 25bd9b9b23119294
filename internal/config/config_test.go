package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Arrange - Clear all environment variables
	clearEnvVars(t)

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.MetricsEnabled != DefaultMetricsEnabled {
		t.Errorf("MetricsEnabled = %v, want %v", cfg.MetricsEnabled, DefaultMetricsEnabled)
	}
	if cfg.AuthMode != DefaultAuthMode {
		t.Errorf("AuthMode = %s, want %s", cfg.AuthMode, DefaultAuthMode)
	}
	if !cfg.AllowAnonymous {
		t.Error("AllowAnonymous = false, want true")
	}
	if cfg.ItemsPerPage != 12 {
		t.Errorf("ItemsPerPage = %d, want 12", cfg.ItemsPerPage)
	}
	if cfg.StoreBackend != StoreBackendMemory {
		t.Errorf("StoreBackend = %s, want %s", cfg.StoreBackend, StoreBackendMemory)
	}
	if cfg.MongoDatabase != DefaultMongoDatabase {
		t.Errorf("MongoDatabase = %s, want %s", cfg.MongoDatabase, DefaultMongoDatabase)
	}
	if cfg.SeedFile != "" {
		t.Errorf("SeedFile = %s, want empty string", cfg.SeedFile)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name: "custom server port",
			envVars: map[string]string{
				EnvServerPort: "9090",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 9090 {
					t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
				}
			},
		},
		{
			name: "custom shutdown timeout",
			envVars: map[string]string{
				EnvShutdownTimeout: "60s",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ShutdownTimeout != 60*time.Second {
					t.Errorf("ShutdownTimeout = %v, want 60s", cfg.ShutdownTimeout)
				}
			},
		},
		{
			name: "custom page size",
			envVars: map[string]string{
				EnvItemsPerPage: "25",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ItemsPerPage != 25 {
					t.Errorf("ItemsPerPage = %d, want 25", cfg.ItemsPerPage)
				}
			},
		},
		{
			name: "mongodb backend",
			envVars: map[string]string{
				EnvStoreBackend:  StoreBackendMongoDB,
				EnvMongoURI:      "mongodb://localhost:27017",
				EnvMongoDatabase: "venues_test",
				EnvMongoTimeout:  "3s",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.StoreBackend != StoreBackendMongoDB {
					t.Errorf("StoreBackend = %s, want mongodb", cfg.StoreBackend)
				}
				if cfg.MongoURI != "mongodb://localhost:27017" {
					t.Errorf("MongoURI = %s, want mongodb://localhost:27017", cfg.MongoURI)
				}
				if cfg.MongoDatabase != "venues_test" {
					t.Errorf("MongoDatabase = %s, want venues_test", cfg.MongoDatabase)
				}
				if cfg.MongoTimeout != 3*time.Second {
					t.Errorf("MongoTimeout = %v, want 3s", cfg.MongoTimeout)
				}
			},
		},
		{
			name: "seed file",
			envVars: map[string]string{
				EnvSeedFile: "/etc/venuelist/venues.yaml",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.SeedFile != "/etc/venuelist/venues.yaml" {
					t.Errorf("SeedFile = %s, want /etc/venuelist/venues.yaml", cfg.SeedFile)
				}
			},
		},
		{
			name: "basic auth without anonymous browsing",
			envVars: map[string]string{
				EnvAuthMode:       "basic",
				EnvBasicAuthUsers: "alice:$2a$10$hash",
				EnvAllowAnonymous: "false",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.AuthMode != "basic" {
					t.Errorf("AuthMode = %s, want basic", cfg.AuthMode)
				}
				if cfg.AllowAnonymous {
					t.Error("AllowAnonymous = true, want false")
				}
				if cfg.BasicAuthUsers != "alice:$2a$10$hash" {
					t.Errorf("BasicAuthUsers = %s, want alice:$2a$10$hash", cfg.BasicAuthUsers)
				}
			},
		},
		{
			name: "multi auth with API keys",
			envVars: map[string]string{
				EnvAuthMode: "multi",
				EnvAPIKeys:  "k1:alice",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.APIKeys != "k1:alice" {
					t.Errorf("APIKeys = %s, want k1:alice", cfg.APIKeys)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{
			name:    "invalid server port - zero",
			envVars: map[string]string{EnvServerPort: "0"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid server port - too high",
			envVars: map[string]string{EnvServerPort: "65536"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{EnvLogLevel: "invalid"},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "invalid shutdown timeout - zero",
			envVars: map[string]string{EnvShutdownTimeout: "0s"},
			wantErr: ErrInvalidShutdownTimeout,
		},
		{
			name:    "page size zero",
			envVars: map[string]string{EnvItemsPerPage: "0"},
			wantErr: ErrInvalidItemsPerPage,
		},
		{
			name:    "page size too large",
			envVars: map[string]string{EnvItemsPerPage: "101"},
			wantErr: ErrInvalidItemsPerPage,
		},
		{
			name:    "unknown auth mode",
			envVars: map[string]string{EnvAuthMode: "oidc"},
			wantErr: ErrInvalidAuthMode,
		},
		{
			name:    "basic without users",
			envVars: map[string]string{EnvAuthMode: "basic"},
			wantErr: ErrInvalidBasicAuthConfig,
		},
		{
			name:    "apikey without keys",
			envVars: map[string]string{EnvAuthMode: "apikey"},
			wantErr: ErrInvalidAPIKeyConfig,
		},
		{
			name:    "multi without any config",
			envVars: map[string]string{EnvAuthMode: "multi"},
			wantErr: ErrInvalidMultiAuthConfig,
		},
		{
			name:    "unknown store backend",
			envVars: map[string]string{EnvStoreBackend: "postgres"},
			wantErr: ErrInvalidStoreBackend,
		},
		{
			name:    "mongodb without URI",
			envVars: map[string]string{EnvStoreBackend: StoreBackendMongoDB},
			wantErr: ErrInvalidMongoConfig,
		},
		{
			name: "mongodb with zero timeout",
			envVars: map[string]string{
				EnvStoreBackend: StoreBackendMongoDB,
				EnvMongoURI:     "mongodb://localhost:27017",
				EnvMongoTimeout: "0s",
			},
			wantErr: ErrInvalidMongoTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err == nil {
				t.Fatalf("Load() expected error, got nil")
			}
			if cfg != nil {
				t.Errorf("Load() expected nil config on error, got %+v", cfg)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "invalid server port - not a number",
			envVars: map[string]string{EnvServerPort: "abc"},
		},
		{
			name:    "invalid shutdown timeout - bad format",
			envVars: map[string]string{EnvShutdownTimeout: "invalid"},
		},
		{
			name:    "invalid metrics enabled - not a bool",
			envVars: map[string]string{EnvMetricsEnabled: "notabool"},
		},
		{
			name:    "invalid page size - not a number",
			envVars: map[string]string{EnvItemsPerPage: "twelve"},
		},
		{
			name:    "invalid allow anonymous - not a bool",
			envVars: map[string]string{EnvAllowAnonymous: "sometimes"},
		},
		{
			name:    "invalid mongodb timeout",
			envVars: map[string]string{EnvMongoTimeout: "soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err == nil {
				t.Fatalf("Load() expected error, got nil")
			}
			if cfg != nil {
				t.Errorf("Load() expected nil config on error, got %+v", cfg)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServerPort:      8080,
			LogLevel:        "info",
			ShutdownTimeout: 30 * time.Second,
			ItemsPerPage:    12,
			StoreBackend:    StoreBackendMemory,
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			modify:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "empty auth mode defaults to none",
			modify:  func(c *Config) { c.AuthMode = "" },
			wantErr: nil,
		},
		{
			name:    "maximum page size",
			modify:  func(c *Config) { c.ItemsPerPage = 100 },
			wantErr: nil,
		},
		{
			name: "valid mongodb config",
			modify: func(c *Config) {
				c.StoreBackend = StoreBackendMongoDB
				c.MongoURI = "mongodb://db:27017"
				c.MongoDatabase = "venuelist"
				c.MongoTimeout = time.Second
			},
			wantErr: nil,
		},
		{
			name: "mongodb without database",
			modify: func(c *Config) {
				c.StoreBackend = StoreBackendMongoDB
				c.MongoURI = "mongodb://db:27017"
				c.MongoTimeout = time.Second
			},
			wantErr: ErrInvalidMongoConfig,
		},
		{
			name:    "empty store backend",
			modify:  func(c *Config) { c.StoreBackend = "" },
			wantErr: ErrInvalidStoreBackend,
		},
		{
			name:    "negative page size",
			modify:  func(c *Config) { c.ItemsPerPage = -1 },
			wantErr: ErrInvalidItemsPerPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := valid()
			tt.modify(&cfg)

			// Act
			err := cfg.Validate()

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Address(t *testing.T) {
	tests := []struct {
		port int
		want string
	}{
		{8080, ":8080"},
		{1, ":1"},
		{65535, ":65535"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := &Config{ServerPort: tt.port}

			if got := cfg.Address(); got != tt.want {
				t.Errorf("Address() = %s, want %s", got, tt.want)
			}
		})
	}
}

// clearEnvVars clears all config environment variables.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		EnvServerPort,
		EnvLogLevel,
		EnvShutdownTimeout,
		EnvMetricsEnabled,
		EnvAuthMode,
		EnvAllowAnonymous,
		EnvBasicAuthUsers,
		EnvAPIKeys,
		EnvItemsPerPage,
		EnvStoreBackend,
		EnvMongoURI,
		EnvMongoDatabase,
		EnvMongoTimeout,
		EnvSeedFile,
	}
	for _, env := range envVars {
		if err := os.Unsetenv(env); err != nil {
			t.Fatalf("failed to unset env var %s: %v", env, err)
		}
	}
}
