package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"finledger/internal/core"
)

const transactionSelect = `
	SELECT t.id, t.user_id, t.account_id, t.category_id, t.amount, t.description,
	       t.date, t.type, t.status, t.created_at, t.updated_at,
	       a.name, c.name
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	LEFT JOIN categories c ON c.id = t.category_id`

var sortColumns = map[core.SortField]string{
	core.SortByDate:        "t.date",
	core.SortByAmount:      "t.amount",
	core.SortByDescription: "t.description",
}

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t                      core.Transaction
		categoryID, catName    sql.NullString
		date, created, updated string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &categoryID, &t.Amount.Cents, &t.Description,
		&date, &t.Type, &t.Status, &created, &updated, &t.AccountName, &catName); err != nil {
		return core.Transaction{}, err
	}
	t.CategoryID = categoryID.String
	t.CategoryName = catName.String

	var err error
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (q *Queries) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, account_id, category_id, amount, description,
		                          date, type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.UserID, t.AccountID, nullable(t.CategoryID), t.Amount.Cents, t.Description,
		t.Date.String(), string(t.Type), string(t.Status), formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetTransaction loads a transaction owned by userID with its account and
// category names. Inside a transaction the row is locked until commit.
func (q *Queries) GetTransaction(ctx context.Context, id, userID string) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, transactionSelect+`
		WHERE t.id = $1 AND t.user_id = $2`+q.lock("t"), id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = $1, category_id = $2, amount = $3, description = $4,
		    date = $5, type = $6, status = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10`,
		t.AccountID, nullable(t.CategoryID), t.Amount.Cents, t.Description,
		t.Date.String(), string(t.Type), string(t.Status), formatTime(t.UpdatedAt),
		t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectOne(res)
}

func (q *Queries) DeleteTransaction(ctx context.Context, id, userID string) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOne(res)
}

// where accumulates AND-ed conditions with numbered placeholders.
type where struct {
	conds []string
	args  []any
}

// add appends cond, replacing each "?" with the next placeholder.
func (w *where) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func transactionWhere(dialect Dialect, userID string, query core.TransactionQuery) *where {
	w := &where{}
	w.add("t.user_id = ?", userID)
	if query.Type != "" {
		w.add("t.type = ?", string(query.Type))
	}
	if query.AccountID != "" {
		w.add("t.account_id = ?", query.AccountID)
	}
	if query.CategoryID != "" {
		w.add("t.category_id = ?", query.CategoryID)
	}
	if !query.Range.From.IsZero() {
		w.add("t.date >= ?", query.Range.From.String())
	}
	if !query.Range.To.IsZero() {
		w.add("t.date <= ?", query.Range.To.String())
	}
	if query.Search != "" {
		w.add(dialect.lowerFunc()+`(t.description) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(query.Search))+"%")
	}
	return w
}

// ListTransactions returns one page of the user's transactions and the total
// number matching the filter. Ties on the sort column are broken by id in the
// same direction so pages never overlap.
func (q *Queries) ListTransactions(ctx context.Context, userID string, query core.TransactionQuery) ([]core.Transaction, int64, error) {
	w := transactionWhere(q.dialect, userID, query)

	var total int64
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	col, ok := sortColumns[query.Sort.Field]
	if !ok {
		col = sortColumns[core.SortByDate]
	}
	dir := "DESC"
	if query.Sort.Order == core.Asc {
		dir = "ASC"
	}

	n := len(w.args)
	stmt := transactionSelect + w.String() +
		" ORDER BY " + col + " " + dir + ", t.id " + dir +
		" LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2)
	args := append(w.args, query.Limit, query.Offset)

	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	items := make([]core.Transaction, 0, query.Limit)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return items, total, nil
}

// RecentTransactions returns the user's latest transactions by date.
func (q *Queries) RecentTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, transactionSelect+`
		WHERE t.user_id = $1
		ORDER BY t.date DESC, t.created_at DESC, t.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TransactionsInRange returns every transaction of the user dated within r,
// oldest first.
func (q *Queries) TransactionsInRange(ctx context.Context, userID string, r core.DateRange) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, transactionSelect+`
		WHERE t.user_id = $1 AND t.date >= $2 AND t.date <= $3
		ORDER BY t.date, t.created_at, t.id`, userID, r.From.String(), r.To.String())
	if err != nil {
		return nil, fmt.Errorf("transactions in range: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TxRef identifies a transaction and the account it posts to.
type TxRef struct {
	ID        string
	AccountID string
}

// AccountTransactionRefs lists the user's transactions posted to accountID.
func (q *Queries) AccountTransactionRefs(ctx context.Context, accountID, userID string) ([]TxRef, error) {
	return q.txRefs(ctx, `
		SELECT id, account_id FROM transactions
		WHERE account_id = $1 AND user_id = $2
		ORDER BY id`, accountID, userID)
}

// CategoryTransactionRefs lists the user's transactions filed under categoryID.
func (q *Queries) CategoryTransactionRefs(ctx context.Context, categoryID, userID string) ([]TxRef, error) {
	return q.txRefs(ctx, `
		SELECT id, account_id FROM transactions
		WHERE category_id = $1 AND user_id = $2
		ORDER BY id`, categoryID, userID)
}

func (q *Queries) txRefs(ctx context.Context, stmt string, args ...any) ([]TxRef, error) {
	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("transaction refs: %w", err)
	}
	defer rows.Close()

	var out []TxRef
	for rows.Next() {
		var r TxRef
		if err := rows.Scan(&r.ID, &r.AccountID); err != nil {
			return nil, fmt.Errorf("scan transaction ref: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
