package backend

import (
	"context"
	"errors"
	"fmt"

	"finledger/internal/amqp"
	"finledger/internal/log"
	gsheet "finledger/internal/sheets/google"
	"finledger/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentStorage)}
}

// Create opens the store, then the optional event client and mirror. Only a
// store failure is fatal; optional parts are logged and left nil.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := openStore(config)
	if err != nil {
		return nil, err
	}
	res := &Result{Store: store}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			res.Events = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	if config.GoogleSpreadsheetID != "" {
		mirror, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			f.logger.Warn("Failed to initialize Google Sheets mirror, continuing without it", "error", err)
		} else {
			res.Mirror = mirror
			f.logger.Info("Initialized Google Sheets mirror", "sheet", config.GoogleSheetName)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		if res.Events != nil {
			errs = append(errs, res.Events.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized store",
		"driver", config.Driver,
		"amqp_enabled", res.Events != nil,
		"mirror_enabled", res.Mirror != nil)
	return res, nil
}

func openStore(config Config) (*storage.Repository, error) {
	switch config.Driver {
	case storage.Postgres:
		repo, err := storage.NewPostgresRepository(config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		return repo, nil
	default:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, nil
	}
}
