package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finledger/internal/core"
	"finledger/internal/sheets"
	"finledger/internal/trace"
)

// Ledger is the part of the ledger service the worker reads.
type Ledger interface {
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	Reconcile(ctx context.Context, userID, accountID string) (core.Reconciliation, error)
}

// LedgerWorker reacts to committed ledger writes: it checks the balances of
// the touched accounts and mirrors the transaction to a spreadsheet.
type LedgerWorker struct {
	ledger Ledger
	mirror sheets.Mirror
}

// NewLedgerWorker builds a worker. mirror may be nil to only reconcile.
func NewLedgerWorker(ledger Ledger, mirror sheets.Mirror) *LedgerWorker {
	return &LedgerWorker{ledger: ledger, mirror: mirror}
}

// HandleEvent processes one event. A returned error means the event should
// be retried; balance drift is logged, not retried.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev core.LedgerEvent) error {
	slog.DebugContext(ctx, "Processing ledger event",
		"kind", ev.Kind,
		"user_id", ev.UserID,
		"transaction_id", ev.TransactionID)

	for _, accountID := range ev.AccountIDs {
		if _, err := w.reconcile(ctx, ev.UserID, accountID); err != nil {
			return err
		}
	}

	if w.mirror == nil {
		return nil
	}
	if err := w.mirrorTransaction(ctx, ev); err != nil {
		return fmt.Errorf("mirror transaction %s: %w", ev.TransactionID, err)
	}
	return nil
}

func (w *LedgerWorker) mirrorTransaction(ctx context.Context, ev core.LedgerEvent) error {
	if ev.Kind == core.EventDeleted {
		return w.mirror.Remove(ctx, ev.TransactionID)
	}

	t, err := w.ledger.GetTransaction(ctx, ev.UserID, ev.TransactionID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event was published.
		return w.mirror.Remove(ctx, ev.TransactionID)
	}
	if err != nil {
		return err
	}
	if err := w.mirror.Upsert(ctx, t); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Mirrored transaction",
		"transaction_id", t.ID,
		"amount_cents", t.Amount.Cents,
		"type", t.Type)
	return nil
}

// reconcile checks one account. ok is false when the balance drifted.
func (w *LedgerWorker) reconcile(ctx context.Context, userID, accountID string) (ok bool, err error) {
	rec, err := w.ledger.Reconcile(ctx, userID, accountID)
	if errors.Is(err, core.ErrNotFound) {
		slog.DebugContext(ctx, "Account gone before reconcile", "account_id", accountID)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reconcile account %s: %w", accountID, err)
	}
	if !rec.Consistent() {
		slog.ErrorContext(ctx, "Account balance drift detected",
			"event_id", trace.EventID(ctx),
			"user_id", userID,
			"account_id", accountID,
			"stored_cents", rec.Stored.Cents,
			"computed_cents", rec.Computed.Cents,
			"drift_cents", rec.Drift().Cents)
		return false, nil
	}
	return true, nil
}

// ReconcileUser checks every account of userID and returns the ones whose
// stored balance differs from their transactions.
func (w *LedgerWorker) ReconcileUser(ctx context.Context, userID string) ([]core.Reconciliation, error) {
	accounts, err := w.ledger.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	var drifted []core.Reconciliation
	for _, acc := range accounts {
		rec, err := w.ledger.Reconcile(ctx, userID, acc.ID)
		if err != nil {
			return nil, fmt.Errorf("reconcile account %s: %w", acc.ID, err)
		}
		if !rec.Consistent() {
			drifted = append(drifted, rec)
		}
	}

	slog.InfoContext(ctx, "Reconciliation completed",
		"user_id", userID,
		"accounts", len(accounts),
		"drifted", len(drifted))
	return drifted, nil
}
