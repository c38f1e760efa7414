package backend

import (
	"context"
	"fmt"

	"moneyrider/internal/log"
	"moneyrider/internal/storage"
	"moneyrider/internal/store/jsonfile"
	"moneyrider/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	s := jsonfile.New(config.AccountsFile, config.UsersDir, f.logger)

	f.logger.InfoContext(ctx, "Initialized JSON file backend",
		"accounts_file", config.AccountsFile,
		"users_dir", config.UsersDir)

	return &BackendResult{
		Backend: s,
		Cleanup: nil, // No cleanup needed for file backend
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	version, _, err := storage.SchemaVersion(config.SQLiteDBPath)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"schema_version", version)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if config.SeedAccountsFile == "" {
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return &BackendResult{Backend: memory.New()}, nil
	}

	s, err := memory.NewFromFiles(ctx, config.SeedAccountsFile, config.SeedUsersDir)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend",
		"seed_accounts_file", config.SeedAccountsFile,
		"seed_users_dir", config.SeedUsersDir)

	return &BackendResult{
		Backend: s,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
