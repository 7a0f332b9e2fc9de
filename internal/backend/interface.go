package backend

import (
	"context"

	"finledger/internal/amqp"
	"finledger/internal/sheets"
	"finledger/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds everything a process needs to run the ledger. Events and
// Mirror are nil when not configured.
type Result struct {
	Store   *storage.Repository
	Events  *amqp.Client
	Mirror  sheets.Mirror
	Cleanup CleanupFunc
}

// Factory opens the configured infrastructure.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Driver storage.Dialect

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}
