package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names a supported SQL engine.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ErrNotFound is returned when a row addressed by id (and owner) does not exist.
var ErrNotFound = errors.New("storage: not found")

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) IsValid() bool {
	return d == SQLite || d == Postgres
}

// forUpdate returns the row-lock clause for a locking read. SQLite has no row
// locks; its write transactions are opened IMMEDIATE instead.
func (d Dialect) forUpdate(table string) string {
	if d == Postgres {
		return " FOR UPDATE OF " + table
	}
	return ""
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds every SQL statement the ledger issues. It runs against the
// pool for reads or against a transaction inside InTx.
type Queries struct {
	db      DBTX
	dialect Dialect
	inTx    bool
}

func New(db DBTX, dialect Dialect) *Queries {
	if dialect == SQLite {
		db = positional{db}
	}
	return &Queries{db: db, dialect: dialect}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	tq := New(tx, q.dialect)
	tq.inTx = true
	return tq
}

var numbered = regexp.MustCompile(`\$[0-9]+`)

// positional rewrites $N placeholders to SQLite's bare ?. Statements number
// their placeholders in order of appearance, each used once.
type positional struct {
	DBTX
}

func rebind(query string) string {
	return numbered.ReplaceAllString(query, "?")
}

func (p positional) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.DBTX.ExecContext(ctx, rebind(query), args...)
}

func (p positional) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.DBTX.QueryContext(ctx, rebind(query), args...)
}

func (p positional) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return p.DBTX.QueryRowContext(ctx, rebind(query), args...)
}

// lock returns the locking clause only when running inside a transaction.
func (q *Queries) lock(table string) string {
	if !q.inTx {
		return ""
	}
	return q.dialect.forUpdate(table)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
