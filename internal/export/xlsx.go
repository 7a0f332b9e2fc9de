package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"finledger/internal/core"
)

const (
	summarySheet      = "Summary"
	transactionsSheet = "Transactions"
)

// WriteXLSX writes a workbook with a Summary sheet (totals and category
// breakdowns) and a Transactions sheet. Amounts are numeric cells in major
// units.
func WriteXLSX(w io.Writer, st core.Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeSummary(f, st, bold, money); err != nil {
		return err
	}
	if err := writeTransactions(f, st, bold, money); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, st core.Statement, bold, money int) error {
	rows := [][]any{
		{"Statement", st.Month.String()},
		{"Generated", st.GeneratedAt.Format("2006-01-02 15:04 MST")},
		{},
		{"Total balance", major(st.TotalBalance)},
		{"Income", major(st.Totals.Income)},
		{"Expense", major(st.Totals.Expense)},
		{"Net", major(st.Totals.Balance)},
	}
	row := 1
	for _, r := range rows {
		if err := f.SetSheetRow(summarySheet, cell("A", row), &r); err != nil {
			return fmt.Errorf("write summary row %d: %w", row, err)
		}
		row++
	}
	_ = f.SetCellStyle(summarySheet, "A1", "A7", bold)
	_ = f.SetCellStyle(summarySheet, "B4", "B7", money)

	for _, section := range []struct {
		title   string
		buckets []core.Bucket
	}{
		{"Income by category", st.IncomeByCategory},
		{"Expense by category", st.ExpenseByCategory},
	} {
		row++
		if err := f.SetCellValue(summarySheet, cell("A", row), section.title); err != nil {
			return err
		}
		_ = f.SetCellStyle(summarySheet, cell("A", row), cell("A", row), bold)
		row++
		for _, b := range section.buckets {
			if err := f.SetSheetRow(summarySheet, cell("A", row), &[]any{b.Name, major(b.Value)}); err != nil {
				return fmt.Errorf("write category row %d: %w", row, err)
			}
			_ = f.SetCellStyle(summarySheet, cell("B", row), cell("B", row), money)
			row++
		}
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "B", "B", 16)
	return nil
}

func writeTransactions(f *excelize.File, st core.Statement, bold, money int) error {
	header := []any{"Date", "Type", "Status", "Description", "Account", "Category", "Amount"}
	if err := f.SetSheetRow(transactionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	_ = f.SetCellStyle(transactionsSheet, "A1", "G1", bold)

	for i, t := range st.Transactions {
		row := i + 2
		values := []any{
			t.Date.String(),
			typeLabel(t.Type),
			string(t.Status),
			t.Description,
			t.AccountName,
			t.CategoryName,
			major(t.Type.Signed(t.Amount)),
		}
		if err := f.SetSheetRow(transactionsSheet, cell("A", row), &values); err != nil {
			return fmt.Errorf("write transaction row %d: %w", row, err)
		}
	}
	if n := len(st.Transactions); n > 0 {
		_ = f.SetCellStyle(transactionsSheet, "G2", cell("G", n+1), money)
	}

	_ = f.SetColWidth(transactionsSheet, "A", "C", 12)
	_ = f.SetColWidth(transactionsSheet, "D", "D", 36)
	_ = f.SetColWidth(transactionsSheet, "E", "F", 18)
	_ = f.SetColWidth(transactionsSheet, "G", "G", 14)
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// major converts minor units to a float for spreadsheet display only.
func major(m core.Money) float64 {
	f, _ := m.Decimal().Float64()
	return f
}
