package sheets

import (
	"context"

	"finledger/internal/core"
)

// Mirror keeps a copy of each transaction outside the ledger, one row per
// transaction keyed by id.
type Mirror interface {
	// Upsert writes t, replacing an existing row with the same id.
	Upsert(ctx context.Context, t core.Transaction) error
	// Remove deletes the row of id. A missing row is not an error.
	Remove(ctx context.Context, id string) error
}

// Header is the mirrored row layout. Column A holds the transaction id.
var Header = []any{"ID", "Date", "Type", "Status", "Amount", "Description", "Account", "Category", "Updated"}

// Row renders t in Header order. Amounts are signed decimals, so expenses
// show as negative.
func Row(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.String(),
		string(t.Type),
		string(t.Status),
		t.Type.Signed(t.Amount).String(),
		t.Description,
		t.AccountName,
		t.CategoryName,
		t.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}
