package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"finledger/internal/core"
)

func sampleStatement() core.Statement {
	return core.Statement{
		Month:        core.Month{Year: 2024, Month: time.March},
		GeneratedAt:  time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
		TotalBalance: core.Money{Cents: 123456},
		Totals: core.MonthTotals{
			Income:  core.Money{Cents: 10000},
			Expense: core.Money{Cents: 4000},
			Balance: core.Money{Cents: 6000},
		},
		IncomeByCategory:  []core.Bucket{{Name: "Salary", Value: core.Money{Cents: 10000}}},
		ExpenseByCategory: []core.Bucket{{Name: "Rent", Value: core.Money{Cents: 4000}}},
		Transactions: []core.Transaction{
			{Date: core.NewDate(2024, 3, 1), Type: core.Income, Status: core.StatusCompleted, Amount: core.Money{Cents: 10000}, Description: "Paycheck", AccountName: "Main", CategoryName: "Salary"},
			{Date: core.NewDate(2024, 3, 5), Type: core.Expense, Status: core.StatusCompleted, Amount: core.Money{Cents: 4000}, Description: "Café rent", AccountName: "Main", CategoryName: "Rent"},
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleStatement()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != summarySheet || got[1] != transactionsSheet {
		t.Fatalf("sheets = %v", got)
	}
	month, err := f.GetCellValue(summarySheet, "B1")
	if err != nil || month != "2024-03" {
		t.Errorf("B1 = %q, %v", month, err)
	}

	rows, err := f.GetRows(transactionsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("transaction rows = %d, want header plus 2", len(rows))
	}
	if rows[2][3] != "Café rent" || rows[2][1] != "Expense" {
		t.Errorf("row = %v", rows[2])
	}
	raw, err := f.GetCellValue(transactionsSheet, "G3", excelize.Options{RawCellValue: true})
	if err != nil || raw != "-40" {
		t.Errorf("G3 raw = %q, %v, want -40", raw, err)
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, PDF, sampleStatement()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output does not look like a PDF: %q", buf.Bytes()[:8])
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"xlsx": XLSX, " PDF ": PDF} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("ParseFormat(csv) should fail")
	}
	if got := XLSX.Filename(core.Month{Year: 2024, Month: time.March}); got != "statement_2024-03.xlsx" {
		t.Errorf("Filename = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
