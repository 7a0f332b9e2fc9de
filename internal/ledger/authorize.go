package ledger

import (
	"context"
	"errors"
	"fmt"

	"finledger/internal/core"
	"finledger/internal/storage"
)

// authorizer loads records on behalf of one user. A record that is missing
// and one that belongs to someone else give the same NotFound error.
type authorizer struct {
	q      *storage.Queries
	userID string
	op     string
}

func (a authorizer) account(ctx context.Context, id string) (core.Account, error) {
	acc, err := a.q.GetAccount(ctx, id, a.userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Account{}, core.NotFound(a.op, "account %s not found", id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("load account %s: %w", id, err)
	}
	return acc, nil
}

// category resolves an optional category; an empty id yields the zero value.
func (a authorizer) category(ctx context.Context, id string) (core.Category, error) {
	if id == "" {
		return core.Category{}, nil
	}
	cat, err := a.q.GetCategory(ctx, id, a.userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Category{}, core.NotFound(a.op, "category %s not found", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("load category %s: %w", id, err)
	}
	return cat, nil
}

func (a authorizer) transaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := a.q.GetTransaction(ctx, id, a.userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Transaction{}, core.NotFound(a.op, "transaction %s not found", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction %s: %w", id, err)
	}
	return t, nil
}

func requireUser(op, userID string) error {
	if userID == "" {
		return core.Forbidden(op, "caller is not identified")
	}
	return nil
}
