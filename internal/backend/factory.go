package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"planner/internal/amqp"
	gsheet "planner/internal/sheets/google"
	"planner/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the store, then the optional broker and remote.
// A broker that cannot be reached is skipped with a warning; a configured
// remote that fails to initialize is an error.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}
	result := &BackendResult{Store: store}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			result.AMQP = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	if config.HasRemote() {
		remote, err := f.createRemote(ctx, config)
		if err != nil {
			_ = result.close()
			return nil, err
		}
		result.Remote = remote
	}

	result.Cleanup = result.close
	f.logger.Info("Backend ready",
		"type", config.Type,
		"amqp_enabled", result.AMQP != nil,
		"remote_enabled", result.Remote != nil)
	return result, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRemote(ctx context.Context, config Config) (*gsheet.Client, error) {
	creds, err := gsheet.LoadCredentials(config.GoogleServiceAccountJSON, config.GoogleServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load Google credentials: %w", err)
	}
	client, err := gsheet.NewClient(ctx, gsheet.Config{
		SpreadsheetID:     config.GoogleSpreadsheetID,
		SheetName:         config.GoogleSheetName,
		CredentialsJSON:   creds,
		RequestsPerSecond: config.GoogleRequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	id, err := client.EnsureSpreadsheet(ctx, gsheet.DefaultSpreadsheetTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve spreadsheet: %w", err)
	}
	f.logger.Info("Initialized Google Sheets mirror", "spreadsheet_id", id)
	return client, nil
}

func (b *BackendResult) close() error {
	var errs []error
	if b.AMQP != nil {
		errs = append(errs, b.AMQP.Close())
	}
	if b.Store != nil {
		errs = append(errs, b.Store.Close())
	}
	return errors.Join(errs...)
}
