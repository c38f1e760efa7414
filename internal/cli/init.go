// Package cli provides common CLI initialization utilities: logging, .env
// loading, configuration and the wiring from configuration to a session.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"moneyrider/internal/accounts"
	"moneyrider/internal/backend"
	"moneyrider/internal/config"
	"moneyrider/internal/log"
	"moneyrider/internal/services"
)

// SetupLogger initializes structured logging on stderr at levelName, falling
// back to info for an unknown level. The logger becomes the default logger.
func SetupLogger(levelName string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentCLI
	level, err := log.ParseLevel(levelName)
	cfg.Level = level

	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend creates the storage backend selected by cfg.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}
	return result, nil
}

// App is the wired core of one CLI invocation.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Directory *accounts.Directory
	Session   *services.Session
	Auditor   *services.Auditor

	backend *backend.BackendResult
}

// NewApp opens the backend and builds the account directory, session and
// auditor on top of it.
func NewApp(ctx context.Context, logger *log.Logger, cfg *config.Config) (*App, error) {
	scheme, err := accounts.SchemeByName(cfg.PasswordScheme)
	if err != nil {
		return nil, err
	}
	result, err := OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	dir := accounts.NewDirectory(result.Backend, result.Backend,
		accounts.WithScheme(scheme),
		accounts.WithLogger(logger))
	session := services.NewSession(dir, result.Backend,
		services.WithLogger(logger),
		services.WithRangeCacheSize(cfg.RangeCacheSize),
		services.WithLenientLoad(cfg.LedgerCorruptAsEmpty))
	auditor := services.NewAuditor(dir, result.Backend, cfg.AuditConcurrency, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Directory: dir,
		Session:   session,
		Auditor:   auditor,
		backend:   result,
	}, nil
}

// Close signs out and releases the backend.
func (a *App) Close(ctx context.Context) error {
	a.Session.SignOut(ctx)
	return a.backend.Close()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
