// Package export renders monthly statements as XLSX workbooks and PDF
// documents.
package export

import (
	"fmt"
	"io"
	"strings"

	"finledger/internal/core"
)

type Format string

const (
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case XLSX, PDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want xlsx or pdf)", s)
	}
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	if f == PDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename is the suggested file name for a statement of m.
func (f Format) Filename(m core.Month) string {
	return fmt.Sprintf("statement_%s.%s", m, f)
}

// Write renders st to w in format f.
func Write(w io.Writer, f Format, st core.Statement) error {
	switch f {
	case XLSX:
		return WriteXLSX(w, st)
	case PDF:
		return WritePDF(w, st)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

func typeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Income"
	}
	return "Expense"
}
