package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finledger/internal/core"
)

const categoryColumns = `id, user_id, name, type, icon, color, is_default`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault)
	return c, err
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.UserID, c.Name, string(c.Type), c.Icon, c.Color, c.IsDefault)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (q *Queries) GetCategory(ctx context.Context, id, userID string) (core.Category, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = $1 AND user_id = $2`, id, userID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (q *Queries) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = $1
		ORDER BY type, name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCategory detaches the category from its transactions and removes it.
func (q *Queries) DeleteCategory(ctx context.Context, id, userID string) error {
	if _, err := q.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = NULL
		WHERE category_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("detach category: %w", err)
	}
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectOne(res)
}
