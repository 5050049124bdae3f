package backend

import (
	"context"
	"fmt"
	"os"

	"teddy/internal/blob/file"
	"teddy/internal/blob/memory"
	"teddy/internal/blob/mongostore"
	"teddy/internal/log"
	"teddy/internal/storage"
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
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var store *memory.Store
	if config.DataDirectory != "" {
		store = memory.NewFromFiles(config.DataDirectory)
	} else {
		store = memory.New()
	}

	f.logger.Info("Initialized memory backend",
		"data_directory", config.DataDirectory,
		log.FieldCount, len(store.Paths()))

	return &BackendResult{Store: store}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	store, err := file.New(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)

	return &BackendResult{
		Store: store,
		Ping: func(context.Context) error {
			_, err := os.Stat(config.DataDirectory)
			return err
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
		Ping:    repo.Ping,
	}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := mongostore.Connect(ctx, config.MongoURI, f.logger)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized MongoDB backend", "database", config.MongoDatabase)

	return &BackendResult{
		Store: mongostore.NewFromClient(client, config.MongoDatabase),
		Cleanup: func() error {
			return client.Disconnect(context.Background())
		},
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
	}, nil
}
