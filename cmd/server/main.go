// Package main is the entry point for the venue server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/venuelist/internal/auth"
	"github.com/vyrodovalexey/venuelist/internal/catalog"
	"github.com/vyrodovalexey/venuelist/internal/config"
	"github.com/vyrodovalexey/venuelist/internal/server"
	"github.com/vyrodovalexey/venuelist/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "venue server:", err)
		os.Exit(1)
	}
}

// run serves the venue API until ctx is canceled, then shuts down within
// the configured timeout.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.String("log_level", cfg.LogLevel),
		zap.String("auth_mode", cfg.AuthMode),
		zap.Bool("allow_anonymous", cfg.AllowAnonymous),
		zap.Int("items_per_page", cfg.ItemsPerPage),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
	)

	authenticator, err := createAuthenticator(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	venueStore, closeStore, err := createStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer closeStore()

	if cfg.SeedFile != "" {
		if err := seedStore(ctx, venueStore, cfg.SeedFile, logger); err != nil {
			return fmt.Errorf("seeding store: %w", err)
		}
	}

	srv := server.New(cfg, logger, catalog.New(venueStore, venueStore, logger), authenticator)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// initLogger initializes a zap logger with the specified log level.
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}

// createStore opens the configured store. The returned function releases it.
func createStore(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory, "":
		logger.Info("using in-memory store")
		return store.NewMemoryStore(), func() {}, nil
	case config.StoreBackendMongoDB:
		logger.Info("using MongoDB store", zap.String("database", cfg.MongoDatabase))

		ctx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
		defer cancel()

		s, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to MongoDB: %w", err)
		}

		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
			defer cancel()
			if err := s.Close(ctx); err != nil {
				logger.Warn("failed to close MongoDB client", zap.Error(err))
			}
		}
		return s, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

// seedStore loads venues from a YAML seed file into s.
func seedStore(ctx context.Context, s store.VenueStore, path string, logger *zap.Logger) error {
	venues, err := store.LoadSeed(path)
	if err != nil {
		return err
	}

	created, err := store.Seed(ctx, s, venues)
	if err != nil {
		return err
	}

	logger.Info("store seeded",
		zap.String("file", path),
		zap.Int("venues", len(venues)),
		zap.Int("created", created),
	)
	return nil
}

// createAuthenticator builds the authenticator for cfg.AuthMode. A nil
// authenticator means every viewer is anonymous.
func createAuthenticator(cfg *config.Config, logger *zap.Logger) (auth.Authenticator, error) {
	switch cfg.AuthMode {
	case "none", "":
		logger.Info("authentication disabled, all viewers are anonymous")
		return nil, nil
	case "basic":
		return auth.NewBasicAuthenticator(cfg.BasicAuthUsers)
	case "apikey":
		return auth.NewAPIKeyAuthenticator(cfg.APIKeys)
	case "multi":
		return createMultiAuthenticator(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", cfg.AuthMode)
	}
}

// createMultiAuthenticator accepts every credential kind that has a
// configuration, Basic first.
func createMultiAuthenticator(cfg *config.Config, logger *zap.Logger) (auth.Authenticator, error) {
	kinds := []struct {
		name   string
		config string
		build  func(string) (auth.Authenticator, error)
	}{
		{"basic", cfg.BasicAuthUsers, func(c string) (auth.Authenticator, error) { return auth.NewBasicAuthenticator(c) }},
		{"apikey", cfg.APIKeys, func(c string) (auth.Authenticator, error) { return auth.NewAPIKeyAuthenticator(c) }},
	}

	var chain []auth.Authenticator
	for _, kind := range kinds {
		if kind.config == "" {
			continue
		}
		a, err := kind.build(kind.config)
		if err != nil {
			return nil, fmt.Errorf("creating %s authenticator: %w", kind.name, err)
		}
		chain = append(chain, a)
		logger.Info("credential kind enabled", zap.String("kind", kind.name))
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("multi auth mode requires at least one credential kind")
	}
	return auth.NewMultiAuthenticator(chain...), nil
}
