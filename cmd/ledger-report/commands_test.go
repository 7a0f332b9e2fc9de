package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finledger/internal/config"
	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "report.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{
		ReportCacheSize: 100,
		ReportCacheTTL:  time.Minute,
		MonthlyWindow:   3,
		Timezone:        "UTC",
	}
	a := newApp(repo, cfg, log.Discard())
	t.Cleanup(a.close)
	return a
}

func seed(t *testing.T, a *app) core.Account {
	t.Helper()
	ctx := context.Background()
	acc, err := a.ledger.CreateAccount(ctx, "alice", "Checking", "#000000")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	for _, in := range []core.TransactionInput{
		{Amount: core.Money{Cents: 500000}, Description: "salary", Date: core.NewDate(2024, 3, 1), Type: core.Income, AccountID: acc.ID},
		{Amount: core.Money{Cents: 12050}, Description: "groceries", Date: core.NewDate(2024, 3, 5), Type: core.Expense, AccountID: acc.ID},
		{Amount: core.Money{Cents: 3000}, Description: "dinner", Date: core.NewDate(2024, 2, 20), Type: core.Expense, AccountID: acc.ID},
	} {
		if _, err := a.ledger.CreateTransaction(ctx, "alice", in); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}
	return acc
}

func runJSON(t *testing.T, a *app, cmd string, args []string, v any) {
	t.Helper()
	var buf bytes.Buffer
	if err := a.run(context.Background(), &buf, cmd, args); err != nil {
		t.Fatalf("run %s: %v", cmd, err)
	}
	if err := json.Unmarshal(buf.Bytes(), v); err != nil {
		t.Fatalf("decode %s output %q: %v", cmd, buf.String(), err)
	}
}

func TestSummaryCommand(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	var got summaryView
	runJSON(t, a, "summary", []string{"--user", "alice", "--month", "2024-03"}, &got)

	if got.Month != "2024-03" || got.MonthlyIncome != 500000 || got.MonthlyExpense != 12050 {
		t.Errorf("summary = %+v", got)
	}
	if got.TotalBalance != 484950 {
		t.Errorf("total balance = %d, want 484950", got.TotalBalance)
	}
	if len(got.Recent) != 3 {
		t.Errorf("recent = %d, want 3", len(got.Recent))
	}
}

func TestMonthlyCommand(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	var got []monthView
	runJSON(t, a, "monthly", []string{"--user", "alice", "--month", "2024-03"}, &got)

	if len(got) != 3 {
		t.Fatalf("months = %d, want the configured window of 3", len(got))
	}
	if got[0].Month != "2024-01" || got[2].Month != "2024-03" {
		t.Errorf("months not ascending: %+v", got)
	}
	if got[1].Expense != 3000 {
		t.Errorf("february expense = %d, want 3000", got[1].Expense)
	}
}

func TestTransactionsCommand(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	var got pageView
	runJSON(t, a, "transactions", []string{"--user", "alice", "--type", "expense", "--sort", "amount", "--order", "asc"}, &got)

	if got.Meta.TotalItems != 2 || len(got.Items) != 2 || got.Meta.CurrentPage != 1 {
		t.Fatalf("page = %+v", got)
	}
	if got.Items[0].Description != "dinner" || got.Items[1].Description != "groceries" {
		t.Errorf("items not sorted by amount: %+v", got.Items)
	}
	if got.Items[0].Amount != 3000 {
		t.Errorf("amount = %d, want 3000 minor units", got.Items[0].Amount)
	}
}

func TestTransactionsCommandMonthFilter(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	var got pageView
	runJSON(t, a, "transactions", []string{"--user", "alice", "--month", "2024-02"}, &got)
	if got.Meta.TotalItems != 1 || got.Items[0].Description != "dinner" {
		t.Fatalf("february page = %+v", got)
	}
}

func TestOutputUsesMinorUnits(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	var buf bytes.Buffer
	if err := a.run(context.Background(), &buf, "income-vs-expense", []string{"--user", "alice", "--month", "2024-03"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0]["value"] != float64(500000) || got[1]["value"] != float64(12050) {
		t.Errorf("buckets = %v, want integer minor units", got)
	}
}

func TestStatementCommandWritesFile(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)
	path := filepath.Join(t.TempDir(), "out", "march.pdf")

	var got map[string]any
	runJSON(t, a, "statement", []string{"--user", "alice", "--month", "2024-03", "--format", "pdf", "--out", path}, &got)

	if got["file"] != path || got["content_type"] != "application/pdf" {
		t.Errorf("statement = %v", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read statement: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("statement is not a PDF")
	}
}

func TestReconcileCommand(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	var got struct {
		Consistent bool        `json:"consistent"`
		Drifted    []driftView `json:"drifted"`
	}
	runJSON(t, a, "reconcile", []string{"--user", "alice"}, &got)
	if !got.Consistent || len(got.Drifted) != 0 {
		t.Errorf("reconcile = %+v", got)
	}
}

func TestCommandErrors(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		name string
		cmd  string
		args []string
		code int
	}{
		{"unknown command", "forecast", nil, 2},
		{"unknown flag", "summary", []string{"--user", "alice", "--verbose"}, 2},
		{"bad month", "summary", []string{"--user", "alice", "--month", "March"}, 2},
		{"bad format", "statement", []string{"--user", "alice", "--format", "csv"}, 2},
		{"bad category type", "by-category", []string{"--user", "alice", "--type", "transfer"}, 2},
		{"bad filter month", "transactions", []string{"--user", "alice", "--month", "2024-13"}, 2},
		{"year conflicts with month", "transactions", []string{"--user", "alice", "--year", "2023", "--month", "2024-03"}, 2},
		{"missing user", "summary", nil, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.run(context.Background(), &bytes.Buffer{}, tt.cmd, tt.args)
			if err == nil {
				t.Fatal("run error = nil")
			}
			if got := exitCode(err); got != tt.code {
				t.Errorf("exitCode(%v) = %d, want %d", err, got, tt.code)
			}
		})
	}
}

func TestParseRejectsPositionalArgs(t *testing.T) {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.String("user", "", "")
	err := parse(fs, []string{"--user", "alice", "extra"})
	if !errors.Is(err, errUsage) || !strings.Contains(err.Error(), "unexpected argument") {
		t.Errorf("parse error = %v", err)
	}
}
