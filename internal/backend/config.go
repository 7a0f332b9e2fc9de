package backend

import (
	"fmt"

	"finledger/internal/config"
	"finledger/internal/storage"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	driver := storage.Dialect(appConfig.DBDriver)
	if !driver.IsValid() {
		return Config{}, fmt.Errorf("invalid database driver in config: %s", appConfig.DBDriver)
	}

	return Config{
		Driver: driver,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	switch c.Driver {
	case storage.SQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite driver")
		}
	case storage.Postgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", c.Driver)
	}
	return nil
}
