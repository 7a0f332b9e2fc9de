package storage

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// SQLite's built-in lower() folds ASCII only.
const sqliteFoldFunc = "fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteFoldFunc, 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return v, nil
			}
		})
}

// lowerFunc names the Unicode-aware lowercase function of the dialect.
func (d Dialect) lowerFunc() string {
	if d == Postgres {
		return "LOWER"
	}
	return sqliteFoldFunc
}
