package export

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"finledger/internal/core"
)

const maxPDFRows = 500

var txColumns = []struct {
	title string
	width float64
	align string
}{
	{"DATE", 24, "C"},
	{"TYPE", 20, "C"},
	{"DESCRIPTION", 66, "L"},
	{"CATEGORY", 34, "L"},
	{"AMOUNT", 38, "R"},
}

// WritePDF writes an A4 statement: header, totals table and transaction
// table.
func WritePDF(w io.Writer, st core.Statement) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(20, 20, 20)
	pdf.Cell(0, 10, "Statement "+st.Month.String())
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Generated "+st.GeneratedAt.Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)

	labels := []string{"Total balance", "Income", "Expense", "Net"}
	values := []core.Money{st.TotalBalance, st.Totals.Income, st.Totals.Expense, st.Totals.Balance}
	for i, l := range labels {
		pdf.CellFormat(45.5, 10, l, "1", lineEnd(i, len(labels)), "C", true, 0, "")
	}
	pdf.SetFont("Helvetica", "", 11)
	for i, v := range values {
		pdf.CellFormat(45.5, 10, v.String(), "1", lineEnd(i, len(values)), "C", false, 0, "")
	}
	pdf.Ln(6)

	txHeader(pdf)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(30, 30, 30)
	for i, t := range st.Transactions {
		if i >= maxPDFRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, fmt.Sprintf("%d more transactions not shown", len(st.Transactions)-maxPDFRows), "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			txHeader(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}
		cells := []string{
			t.Date.String(),
			typeLabel(t.Type),
			truncate(tr(t.Description), 40),
			truncate(tr(t.CategoryName), 20),
			t.Type.Signed(t.Amount).String(),
		}
		for j, c := range txColumns {
			pdf.CellFormat(c.width, 7, cells[j], "1", lineEnd(j, len(txColumns)), c.align, false, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func txHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	for i, c := range txColumns {
		pdf.CellFormat(c.width, 8, c.title, "1", lineEnd(i, len(txColumns)), c.align, true, 0, "")
	}
}

// lineEnd moves to the next line after the last cell of a row.
func lineEnd(i, n int) int {
	if i == n-1 {
		return 1
	}
	return 0
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
