package storage

import (
	"context"
	"database/sql"
	"fmt"

	"finledger/internal/core"
)

// MonthTotals sums completed income and expense dated within r.
func (q *Queries) MonthTotals(ctx context.Context, userID string, r core.DateRange) (income, expense int64, err error) {
	err = q.db.QueryRowContext(ctx, `
		SELECT
			CAST(COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0) AS BIGINT),
			CAST(COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0) AS BIGINT)
		FROM transactions
		WHERE user_id = $1 AND status = $2 AND date >= $3 AND date <= $4`,
		userID, string(core.StatusCompleted), r.From.String(), r.To.String()).Scan(&income, &expense)
	if err != nil {
		return 0, 0, fmt.Errorf("month totals: %w", err)
	}
	return income, expense, nil
}

// CategoryTotals groups completed transactions of one type within r by
// category, largest first. Uncategorized transactions form one group with an
// empty CategoryID.
func (q *Queries) CategoryTotals(ctx context.Context, userID string, typ core.TransactionType, r core.DateRange) ([]core.CategoryTotal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.category_id, c.name, c.color, CAST(SUM(t.amount) AS BIGINT) AS total
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.type = $2 AND t.status = $3
		  AND t.date >= $4 AND t.date <= $5
		GROUP BY t.category_id, c.name, c.color
		ORDER BY total DESC`,
		userID, string(typ), string(core.StatusCompleted), r.From.String(), r.To.String())
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var (
			ct              core.CategoryTotal
			id, name, color sql.NullString
		)
		if err := rows.Scan(&id, &name, &color, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct.CategoryID, ct.Name, ct.Color = id.String, name.String, color.String
		out = append(out, ct)
	}
	return out, rows.Err()
}
