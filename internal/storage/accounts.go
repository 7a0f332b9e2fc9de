package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finledger/internal/core"
)

const accountColumns = `id, user_id, name, balance, color, archived, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a                core.Account
		created, updated string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Balance.Cents, &a.Color, &a.Archived, &created, &updated); err != nil {
		return core.Account{}, err
	}
	var err error
	if a.CreatedAt, err = parseTime(created); err != nil {
		return core.Account{}, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (q *Queries) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.Name, a.Balance.Cents, a.Color, a.Archived,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccount loads an account owned by userID. Inside a transaction the row is
// locked until commit.
func (q *Queries) GetAccount(ctx context.Context, id, userID string) (core.Account, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND user_id = $2`+q.lock("accounts"),
		id, userID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (q *Queries) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1
		ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddToBalance atomically increments the stored balance by delta cents. The
// single UPDATE takes the row lock, so concurrent writers to one account
// serialize in the engine.
func (q *Queries) AddToBalance(ctx context.Context, id, userID string, delta int64, now time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $1, updated_at = $2
		WHERE id = $3 AND user_id = $4`,
		delta, formatTime(now), id, userID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return expectOne(res)
}

func (q *Queries) SetAccountArchived(ctx context.Context, id, userID string, archived bool, now time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE accounts
		SET archived = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4`,
		archived, formatTime(now), id, userID)
	if err != nil {
		return fmt.Errorf("archive account: %w", err)
	}
	return expectOne(res)
}

// DeleteAccount removes the account and every transaction booked against it.
func (q *Queries) DeleteAccount(ctx context.Context, id, userID string) error {
	if _, err := q.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE account_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("delete account transactions: %w", err)
	}
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return expectOne(res)
}

// TotalBalance sums balances of the user's non-archived accounts.
func (q *Queries) TotalBalance(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, `
		SELECT CAST(COALESCE(SUM(balance), 0) AS BIGINT)
		FROM accounts
		WHERE user_id = $1 AND archived = $2`, userID, false).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total balance: %w", err)
	}
	return total, nil
}

// LedgerSum recomputes an account's balance from its transactions.
func (q *Queries) LedgerSum(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := q.db.QueryRowContext(ctx, `
		SELECT CAST(COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END), 0) AS BIGINT)
		FROM transactions
		WHERE account_id = $1`, accountID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("ledger sum: %w", err)
	}
	return sum, nil
}
