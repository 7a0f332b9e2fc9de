package ledger

import (
	"context"
	"errors"
	"strings"

	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// CreateAccount opens an account with a zero balance.
func (s *Service) CreateAccount(ctx context.Context, userID, name, color string) (core.Account, error) {
	const op = "ledger.create_account"
	if err := requireUser(op, userID); err != nil {
		return core.Account{}, err
	}
	now := s.timestamp()
	acc := core.Account{
		ID:        s.newID(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acc.Validate(); err != nil {
		return core.Account{}, core.Validation(op, err)
	}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return core.Account{}, s.fail(ctx, op, err, accountFields(userID, acc.ID))
	}
	s.invalidate(userID)
	return acc, nil
}

func (s *Service) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	const op = "ledger.get_account"
	if err := requireUser(op, userID); err != nil {
		return core.Account{}, err
	}
	acc, err := (authorizer{q: s.store.Queries, userID: userID, op: op}).account(ctx, id)
	if err != nil {
		return core.Account{}, s.fail(ctx, op, err, accountFields(userID, id))
	}
	return acc, nil
}

func (s *Service) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	const op = "ledger.list_accounts"
	if err := requireUser(op, userID); err != nil {
		return nil, err
	}
	accs, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, op, err, log.NewFields().WithUser(userID))
	}
	return accs, nil
}

// ArchiveAccount hides an account from the total balance. Its transactions
// and balance are kept.
func (s *Service) ArchiveAccount(ctx context.Context, userID, id string, archived bool) error {
	const op = "ledger.archive_account"
	if err := requireUser(op, userID); err != nil {
		return err
	}
	err := s.store.SetAccountArchived(ctx, id, userID, archived, s.timestamp())
	if errors.Is(err, storage.ErrNotFound) {
		return core.NotFound(op, "account %s not found", id)
	}
	if err != nil {
		return s.fail(ctx, op, err, accountFields(userID, id))
	}
	s.invalidate(userID)
	return nil
}

// DeleteAccount removes an account together with its transactions.
func (s *Service) DeleteAccount(ctx context.Context, userID, id string) error {
	const op = "ledger.delete_account"
	if err := requireUser(op, userID); err != nil {
		return err
	}
	var removed []storage.TxRef
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		refs, err := q.AccountTransactionRefs(ctx, id, userID)
		if err != nil {
			return err
		}
		err = q.DeleteAccount(ctx, id, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return core.NotFound(op, "account %s not found", id)
		}
		removed = refs
		return err
	})
	if err != nil {
		return s.fail(ctx, op, err, accountFields(userID, id))
	}
	s.logger.InfoContext(ctx, "Account deleted",
		accountFields(userID, id).With("transactions", len(removed)).ToSlice()...)
	s.cascaded(ctx, core.EventDeleted, userID, removed)
	return nil
}

// CreateCategory stores c under the caller. ID and UserID are assigned here.
func (s *Service) CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	const op = "ledger.create_category"
	if err := requireUser(op, userID); err != nil {
		return core.Category{}, err
	}
	c.ID = s.newID()
	c.UserID = userID
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, core.Validation(op, err)
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, s.fail(ctx, op, err, log.NewFields().WithUser(userID).With(log.FieldCategoryID, c.ID))
	}
	s.invalidate(userID)
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	const op = "ledger.list_categories"
	if err := requireUser(op, userID); err != nil {
		return nil, err
	}
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, op, err, log.NewFields().WithUser(userID))
	}
	return cats, nil
}

// DeleteCategory removes a category; its transactions become uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, userID, id string) error {
	const op = "ledger.delete_category"
	if err := requireUser(op, userID); err != nil {
		return err
	}
	var detached []storage.TxRef
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		refs, err := q.CategoryTransactionRefs(ctx, id, userID)
		if err != nil {
			return err
		}
		err = q.DeleteCategory(ctx, id, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return core.NotFound(op, "category %s not found", id)
		}
		detached = refs
		return err
	})
	if err != nil {
		return s.fail(ctx, op, err, log.NewFields().WithUser(userID).With(log.FieldCategoryID, id))
	}
	s.cascaded(ctx, core.EventUpdated, userID, detached)
	return nil
}

// Reconcile compares the stored balance of an account with the sum of its
// transactions, read in one snapshot.
func (s *Service) Reconcile(ctx context.Context, userID, accountID string) (core.Reconciliation, error) {
	const op = "ledger.reconcile"
	if err := requireUser(op, userID); err != nil {
		return core.Reconciliation{}, err
	}
	var rec core.Reconciliation
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		acc, err := (authorizer{q: q, userID: userID, op: op}).account(ctx, accountID)
		if err != nil {
			return err
		}
		sum, err := q.LedgerSum(ctx, accountID)
		if err != nil {
			return err
		}
		rec = core.Reconciliation{
			AccountID: accountID,
			Stored:    acc.Balance,
			Computed:  core.Money{Cents: sum},
		}
		return nil
	})
	if err != nil {
		return core.Reconciliation{}, s.fail(ctx, op, err, accountFields(userID, accountID))
	}
	return rec, nil
}

func accountFields(userID, accountID string) log.LogFields {
	return log.NewFields().WithUser(userID).With(log.FieldAccountID, accountID)
}
