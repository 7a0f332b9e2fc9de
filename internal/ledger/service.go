package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// Invalidator drops every cached report of a user.
type Invalidator interface {
	InvalidateUser(userID string)
}

// EventPublisher announces committed ledger writes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev core.LedgerEvent) error
}

// Options configures a Service. Every field is optional.
type Options struct {
	Cache  Invalidator
	Events EventPublisher
	Logger *log.Logger

	// Now and NewID are overridable in tests.
	Now   func() time.Time
	NewID func() string
}

// Service is the Transaction Ledger Service. Every write runs in one store
// transaction together with the balance changes it implies.
type Service struct {
	store  *storage.Repository
	cache  Invalidator
	events EventPublisher
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(store *storage.Repository, opts Options) *Service {
	s := &Service{
		store:  store,
		cache:  opts.Cache,
		events: opts.Events,
		logger: opts.Logger,
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// timestamp is the store's precision.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// CreateTransaction books a new transaction and applies its effect to the
// account balance.
func (s *Service) CreateTransaction(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	const op = "ledger.create"
	if err := requireUser(op, userID); err != nil {
		return core.Transaction{}, err
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, core.Validation(op, err)
	}

	now := s.timestamp()
	t := core.Transaction{
		ID:          s.newID(),
		UserID:      userID,
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		Type:        in.Type,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		auth := authorizer{q: q, userID: userID, op: op}
		acc, err := auth.account(ctx, t.AccountID)
		if err != nil {
			return err
		}
		cat, err := auth.category(ctx, t.CategoryID)
		if err != nil {
			return err
		}

		if err := q.InsertTransaction(ctx, t); err != nil {
			return err
		}
		if err := (balanceMutator{q: q, userID: userID, now: now}).mutate(ctx, t, Apply); err != nil {
			return err
		}

		t.AccountName = acc.Name
		t.CategoryName = cat.Name
		return nil
	})
	if err != nil {
		return core.Transaction{}, s.fail(ctx, op, err, mutationFields(userID, t))
	}

	s.logger.InfoContext(ctx, "Transaction created", mutationFields(userID, t).ToSlice()...)
	s.committed(ctx, core.EventCreated, userID, t.ID, t.AccountID)
	return t, nil
}

// UpdateTransaction applies a partial update. When amount, type or account
// change, the balance moves by the net adjustment in the same transaction.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	const op = "ledger.update"
	if err := requireUser(op, userID); err != nil {
		return core.Transaction{}, err
	}
	if err := patch.Validate(); err != nil {
		return core.Transaction{}, core.Validation(op, err)
	}

	now := s.timestamp()
	var old, updated core.Transaction

	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		auth := authorizer{q: q, userID: userID, op: op}
		var err error
		if old, err = auth.transaction(ctx, id); err != nil {
			return err
		}

		updated = patch.Apply(old)
		updated.UpdatedAt = now

		if updated.AccountID != old.AccountID {
			acc, err := auth.account(ctx, updated.AccountID)
			if err != nil {
				return err
			}
			updated.AccountName = acc.Name
		}
		if updated.CategoryID != old.CategoryID {
			cat, err := auth.category(ctx, updated.CategoryID)
			if err != nil {
				return err
			}
			updated.CategoryName = cat.Name
		}

		if err := q.UpdateTransaction(ctx, updated); err != nil {
			return err
		}
		return balanceMutator{q: q, userID: userID, now: now}.adjust(ctx, planUpdate(old, updated)...)
	})
	if err != nil {
		fields := mutationFields(userID, patch.Apply(core.Transaction{ID: id}))
		return core.Transaction{}, s.fail(ctx, op, err, fields)
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		mutationFields(userID, updated).With("previous_account_id", old.AccountID).
			With("previous_amount_cents", old.Amount.Cents).ToSlice()...)
	s.committed(ctx, core.EventUpdated, userID, updated.ID, touchedAccounts(old, updated)...)
	return updated, nil
}

// DeleteTransaction removes a transaction, reverses its effect on the
// account, and returns the removed record.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	const op = "ledger.delete"
	if err := requireUser(op, userID); err != nil {
		return core.Transaction{}, err
	}

	now := s.timestamp()
	var t core.Transaction

	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if t, err = (authorizer{q: q, userID: userID, op: op}).transaction(ctx, id); err != nil {
			return err
		}
		if err := q.DeleteTransaction(ctx, id, userID); err != nil {
			return err
		}
		return balanceMutator{q: q, userID: userID, now: now}.mutate(ctx, t, Reverse)
	})
	if err != nil {
		return core.Transaction{}, s.fail(ctx, op, err, mutationFields(userID, core.Transaction{ID: id}))
	}

	s.logger.InfoContext(ctx, "Transaction deleted", mutationFields(userID, t).ToSlice()...)
	s.committed(ctx, core.EventDeleted, userID, t.ID, t.AccountID)
	return t, nil
}

// GetTransaction returns one of the user's transactions.
func (s *Service) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	const op = "ledger.get"
	if err := requireUser(op, userID); err != nil {
		return core.Transaction{}, err
	}
	t, err := (authorizer{q: s.store.Queries, userID: userID, op: op}).transaction(ctx, id)
	if err != nil {
		return core.Transaction{}, s.fail(ctx, op, err, log.NewFields().WithUser(userID).With(log.FieldTransactionID, id))
	}
	return t, nil
}

// fail passes typed errors through. Anything else is logged with the
// attempted mutation and returned as Internal.
func (s *Service) fail(ctx context.Context, op string, err error, fields log.LogFields) error {
	var typed *core.Error
	if errors.As(err, &typed) && typed.Kind != core.KindInternal {
		return err
	}
	s.logger.ErrorContext(ctx, "Ledger operation failed",
		fields.WithOperation(op).WithErrorType(log.ErrorTypeDatabase).WithError(err).ToSlice()...)
	return core.Internal(op, err)
}

// committed runs after a successful write: reports are invalidated before
// the caller sees success, then the event goes out.
func (s *Service) committed(ctx context.Context, kind core.EventKind, userID, txID string, accountIDs ...string) {
	s.invalidate(userID)
	s.publish(ctx, kind, userID, txID, accountIDs...)
}

// cascaded announces every transaction touched by an account or category
// write as its own event.
func (s *Service) cascaded(ctx context.Context, kind core.EventKind, userID string, refs []storage.TxRef) {
	s.invalidate(userID)
	for _, r := range refs {
		s.publish(ctx, kind, userID, r.ID, r.AccountID)
	}
}

func (s *Service) publish(ctx context.Context, kind core.EventKind, userID, txID string, accountIDs ...string) {
	if s.events == nil {
		return
	}
	ev := core.LedgerEvent{
		Kind:          kind,
		UserID:        userID,
		TransactionID: txID,
		AccountIDs:    accountIDs,
		Timestamp:     s.now().UTC(),
	}
	if err := s.events.PublishLedgerEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.NewFields().WithUser(userID).With(log.FieldTransactionID, txID).
				With("event", string(kind)).WithErrorType(log.ErrorTypeNetwork).WithError(err).ToSlice()...)
	}
}

func (s *Service) invalidate(userID string) {
	if s.cache != nil {
		s.cache.InvalidateUser(userID)
	}
}

func mutationFields(userID string, t core.Transaction) log.LogFields {
	return log.NewFields().
		WithUser(userID).
		WithTransaction(t.ID, t.AccountID, t.Amount.Cents, string(t.Type))
}

func touchedAccounts(old, updated core.Transaction) []string {
	if old.AccountID == updated.AccountID {
		return []string{old.AccountID}
	}
	return []string{old.AccountID, updated.AccountID}
}
