package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finledger/internal/core"
	"finledger/internal/ledger"
	"finledger/internal/log"
	"finledger/internal/sheets/memory"
	"finledger/internal/storage"
)

func newLedger(t *testing.T) *ledger.Service {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return ledger.NewService(repo, ledger.Options{Logger: log.Discard()})
}

func event(kind core.EventKind, tx core.Transaction) core.LedgerEvent {
	return core.LedgerEvent{
		Kind:          kind,
		UserID:        tx.UserID,
		TransactionID: tx.ID,
		AccountIDs:    []string{tx.AccountID},
	}
}

func TestHandleEventMirrorsLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newLedger(t)
	mirror := memory.New()
	w := NewLedgerWorker(svc, mirror)

	acc, err := svc.CreateAccount(ctx, "alice", "Checking", "#000000")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	tx, err := svc.CreateTransaction(ctx, "alice", core.TransactionInput{
		Amount:      core.Money{Cents: 2000},
		Description: "groceries",
		Date:        core.NewDate(2024, 3, 15),
		Type:        core.Expense,
		AccountID:   acc.ID,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := w.HandleEvent(ctx, event(core.EventCreated, tx)); err != nil {
		t.Fatalf("HandleEvent created: %v", err)
	}
	rows := mirror.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0][0] != tx.ID || rows[0][4] != "-20.00" || rows[0][6] != "Checking" {
		t.Errorf("row = %v", rows[0])
	}

	desc := "supermarket"
	if _, err := svc.UpdateTransaction(ctx, "alice", tx.ID, core.TransactionPatch{Description: &desc}); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if err := w.HandleEvent(ctx, event(core.EventUpdated, tx)); err != nil {
		t.Fatalf("HandleEvent updated: %v", err)
	}
	rows = mirror.Rows()
	if len(rows) != 1 || rows[0][5] != desc {
		t.Errorf("after update rows = %v", rows)
	}

	if _, err := svc.DeleteTransaction(ctx, "alice", tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := w.HandleEvent(ctx, event(core.EventDeleted, tx)); err != nil {
		t.Fatalf("HandleEvent deleted: %v", err)
	}
	if rows := mirror.Rows(); len(rows) != 0 {
		t.Errorf("after delete rows = %v", rows)
	}
}

func TestHandleEventStaleCreateRemovesRow(t *testing.T) {
	ctx := context.Background()
	svc := newLedger(t)
	mirror := memory.New()
	w := NewLedgerWorker(svc, mirror)

	acc, err := svc.CreateAccount(ctx, "alice", "Checking", "")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	tx, err := svc.CreateTransaction(ctx, "alice", core.TransactionInput{
		Amount:      core.Money{Cents: 100},
		Description: "coffee",
		Date:        core.NewDate(2024, 3, 1),
		Type:        core.Expense,
		AccountID:   acc.ID,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if err := mirror.Upsert(ctx, tx); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := svc.DeleteTransaction(ctx, "alice", tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}

	// The created event arrives after the delete committed.
	if err := w.HandleEvent(ctx, event(core.EventCreated, tx)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if rows := mirror.Rows(); len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
}

func TestHandleEventWithoutMirror(t *testing.T) {
	ctx := context.Background()
	svc := newLedger(t)
	w := NewLedgerWorker(svc, nil)

	ev := core.LedgerEvent{
		Kind:          core.EventCreated,
		UserID:        "alice",
		TransactionID: "missing",
		AccountIDs:    []string{"gone"},
	}
	if err := w.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
}

type fakeLedger struct {
	accounts []core.Account
	recs     map[string]core.Reconciliation
	err      error
}

func (f *fakeLedger) GetTransaction(context.Context, string, string) (core.Transaction, error) {
	return core.Transaction{}, core.NotFound("fake.get", "transaction")
}

func (f *fakeLedger) ListAccounts(context.Context, string) ([]core.Account, error) {
	return f.accounts, nil
}

func (f *fakeLedger) Reconcile(_ context.Context, _, accountID string) (core.Reconciliation, error) {
	if f.err != nil {
		return core.Reconciliation{}, f.err
	}
	return f.recs[accountID], nil
}

func TestHandleEventDriftIsNotRetried(t *testing.T) {
	l := &fakeLedger{recs: map[string]core.Reconciliation{
		"a1": {AccountID: "a1", Stored: core.Money{Cents: 500}, Computed: core.Money{Cents: 300}},
	}}
	w := NewLedgerWorker(l, nil)

	ev := core.LedgerEvent{Kind: core.EventUpdated, UserID: "alice", TransactionID: "t1", AccountIDs: []string{"a1"}}
	if err := w.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
}

func TestHandleEventReconcileFailureIsRetried(t *testing.T) {
	boom := errors.New("database is locked")
	w := NewLedgerWorker(&fakeLedger{err: boom}, memory.New())

	ev := core.LedgerEvent{Kind: core.EventCreated, UserID: "alice", TransactionID: "t1", AccountIDs: []string{"a1"}}
	err := w.HandleEvent(context.Background(), ev)
	if !errors.Is(err, boom) {
		t.Fatalf("HandleEvent error = %v, want %v", err, boom)
	}
}

func TestReconcileUser(t *testing.T) {
	l := &fakeLedger{
		accounts: []core.Account{{ID: "a1"}, {ID: "a2"}},
		recs: map[string]core.Reconciliation{
			"a1": {AccountID: "a1", Stored: core.Money{Cents: 100}, Computed: core.Money{Cents: 100}},
			"a2": {AccountID: "a2", Stored: core.Money{Cents: 100}, Computed: core.Money{Cents: 40}},
		},
	}
	drifted, err := NewLedgerWorker(l, nil).ReconcileUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ReconcileUser: %v", err)
	}
	if len(drifted) != 1 || drifted[0].AccountID != "a2" || drifted[0].Drift().Cents != 60 {
		t.Errorf("drifted = %+v", drifted)
	}
}

type eventLog struct{ events []core.LedgerEvent }

func (l *eventLog) PublishLedgerEvent(_ context.Context, ev core.LedgerEvent) error {
	l.events = append(l.events, ev)
	return nil
}

// drain delivers every recorded event to w in publish order.
func (l *eventLog) drain(t *testing.T, w *LedgerWorker) {
	t.Helper()
	for _, ev := range l.events {
		if err := w.HandleEvent(context.Background(), ev); err != nil {
			t.Fatalf("HandleEvent %s %s: %v", ev.Kind, ev.TransactionID, err)
		}
	}
	l.events = nil
}

func newPublishingLedger(t *testing.T) (*ledger.Service, *eventLog) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	events := &eventLog{}
	return ledger.NewService(repo, ledger.Options{Events: events, Logger: log.Discard()}), events
}

func TestCascadingDeletesReachMirror(t *testing.T) {
	ctx := context.Background()
	svc, events := newPublishingLedger(t)
	mirror := memory.New()
	w := NewLedgerWorker(svc, mirror)

	checking, err := svc.CreateAccount(ctx, "alice", "Checking", "")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	savings, err := svc.CreateAccount(ctx, "alice", "Savings", "")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	food, err := svc.CreateCategory(ctx, "alice", core.Category{Name: "Food", Type: core.Expense})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	for _, in := range []core.TransactionInput{
		{Amount: core.Money{Cents: 100}, Description: "coffee", Date: core.NewDate(2024, 3, 1), Type: core.Expense, AccountID: checking.ID, CategoryID: food.ID},
		{Amount: core.Money{Cents: 200}, Description: "lunch", Date: core.NewDate(2024, 3, 2), Type: core.Expense, AccountID: checking.ID},
		{Amount: core.Money{Cents: 300}, Description: "market", Date: core.NewDate(2024, 3, 3), Type: core.Expense, AccountID: savings.ID, CategoryID: food.ID},
	} {
		if _, err := svc.CreateTransaction(ctx, "alice", in); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}
	events.drain(t, w)
	if rows := mirror.Rows(); len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	if err := svc.DeleteCategory(ctx, "alice", food.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if len(events.events) != 2 {
		t.Fatalf("category delete published %d events, want 2", len(events.events))
	}
	events.drain(t, w)
	for _, row := range mirror.Rows() {
		if row[7] == "Food" {
			t.Errorf("row still shows deleted category: %v", row)
		}
	}

	if err := svc.DeleteAccount(ctx, "alice", checking.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	for _, ev := range events.events {
		if ev.Kind != core.EventDeleted {
			t.Errorf("account delete published %s, want %s", ev.Kind, core.EventDeleted)
		}
	}
	events.drain(t, w)
	rows := mirror.Rows()
	if len(rows) != 1 || rows[0][6] != "Savings" {
		t.Fatalf("rows after account delete = %v, want only the savings row", rows)
	}

	if err := svc.DeleteAccount(ctx, "alice", savings.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	events.drain(t, w)
	if rows := mirror.Rows(); len(rows) != 0 {
		t.Errorf("mirror not empty after deleting every account: %v", rows)
	}
}
