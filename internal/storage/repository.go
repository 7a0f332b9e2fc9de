package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Repository is the Ledger Store: a pooled SQL connection plus the unit of
// work used by every ledger write.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	*Queries
}

// SQLiteDSN builds a modernc DSN with foreign keys on and write transactions
// taking the database lock at BEGIN, so balance updates serialize.
func SQLiteDSN(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

// NewSQLiteRepository opens (creating if needed) the SQLite database at dbPath
// and applies migrations.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	repo, err := open(SQLite, SQLiteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	// A single connection avoids SQLITE_BUSY between the pool's own writers.
	repo.db.SetMaxOpenConns(1)
	return repo, nil
}

// NewPostgresRepository connects through pgx's database/sql driver and
// applies migrations.
func NewPostgresRepository(dsn string) (*Repository, error) {
	return open(Postgres, dsn)
}

func open(dialect Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		dialect: dialect,
		Queries: New(db, dialect),
	}, nil
}

func (r *Repository) Dialect() Dialect { return r.dialect }

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InTx runs fn inside one database transaction. fn's error, a panic, or a
// failed commit rolls back every statement fn issued.
func (r *Repository) InTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(r.Queries.WithTx(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
