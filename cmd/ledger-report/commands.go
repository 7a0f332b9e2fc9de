package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"finledger/internal/core"
	"finledger/internal/export"
)

var errUsage = errors.New("usage")

// run executes one command, writing its JSON result to out.
func (a *app) run(ctx context.Context, out io.Writer, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	user := fs.String("user", "", "owner of the ledger")
	month := fs.String("month", "", "month as YYYY-MM (default current month)")

	switch cmd {
	case "summary":
		if err := parse(fs, args); err != nil {
			return err
		}
		m, err := optionalMonth(*month)
		if err != nil {
			return err
		}
		s, err := a.reports.Summary(ctx, *user, m)
		if err != nil {
			return err
		}
		return writeJSON(out, toSummary(s))

	case "income-vs-expense":
		if err := parse(fs, args); err != nil {
			return err
		}
		m, err := optionalMonth(*month)
		if err != nil {
			return err
		}
		bs, err := a.reports.IncomeVsExpense(ctx, *user, m)
		if err != nil {
			return err
		}
		return writeJSON(out, toBuckets(bs))

	case "by-category":
		typ := fs.String("type", "", "income or expense")
		if err := parse(fs, args); err != nil {
			return err
		}
		m, err := optionalMonth(*month)
		if err != nil {
			return err
		}
		bs, err := a.reports.ByCategory(ctx, *user, core.TransactionType(*typ), m)
		if err != nil {
			return err
		}
		return writeJSON(out, toBuckets(bs))

	case "monthly":
		window := fs.Int("window", 0, "number of months (default MONTHLY_WINDOW)")
		if err := parse(fs, args); err != nil {
			return err
		}
		m, err := optionalMonth(*month)
		if err != nil {
			return err
		}
		ms, err := a.reports.MonthlyData(ctx, *user, m, *window)
		if err != nil {
			return err
		}
		return writeJSON(out, toMonths(ms))

	case "transactions":
		var (
			filter core.TransactionFilter
			sort   core.Sort
			page   core.Page
		)
		fs.StringVar((*string)(&filter.Type), "type", "", "income or expense")
		fs.StringVar(&filter.AccountID, "account", "", "account id")
		fs.StringVar(&filter.CategoryID, "category", "", "category id")
		fs.IntVar(&filter.Year, "year", 0, "calendar year (use --month for a single month)")
		fs.StringVar(&filter.Search, "q", "", "description substring")
		fs.StringVar((*string)(&sort.Field), "sort", "", "date, amount or description")
		fs.StringVar((*string)(&sort.Order), "order", "", "asc or desc")
		fs.IntVar(&page.Number, "page", 1, "page number")
		fs.IntVar(&page.Size, "size", core.DefaultPageSize, "page size")
		if err := parse(fs, args); err != nil {
			return err
		}
		m, err := optionalMonth(*month)
		if err != nil {
			return err
		}
		if m != nil {
			if filter.Year != 0 && filter.Year != m.Year {
				return core.Validation("cli.transactions", fmt.Errorf("--year %d conflicts with --month %s", filter.Year, m))
			}
			filter.Year, filter.Month = m.Year, int(m.Month)
		}
		p, err := a.ledger.ListTransactions(ctx, *user, filter, sort, page)
		if err != nil {
			return err
		}
		return writeJSON(out, toPage(p))

	case "statement":
		format := fs.String("format", "xlsx", "xlsx or pdf")
		path := fs.String("out", "", "output file (default statement_YYYY-MM.<format>)")
		if err := parse(fs, args); err != nil {
			return err
		}
		f, err := export.ParseFormat(*format)
		if err != nil {
			return core.Validation("cli.statement", err)
		}
		m, err := optionalMonth(*month)
		if err != nil {
			return err
		}
		st, err := a.reports.Statement(ctx, *user, m)
		if err != nil {
			return err
		}
		file := *path
		if file == "" {
			file = f.Filename(st.Month)
		}
		if err := writeFile(file, f, st); err != nil {
			return err
		}
		return writeJSON(out, map[string]any{
			"file":         file,
			"content_type": f.ContentType(),
			"transactions": len(st.Transactions),
		})

	case "reconcile":
		if err := parse(fs, args); err != nil {
			return err
		}
		drifted, err := a.recon.ReconcileUser(ctx, *user)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]any{
			"consistent": len(drifted) == 0,
			"drifted":    toDrift(drifted),
		})

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}
	return nil
}

func optionalMonth(s string) (*core.Month, error) {
	if s == "" {
		return nil, nil
	}
	m, err := core.ParseMonth(s)
	if err != nil {
		return nil, core.Validation("cli.month", err)
	}
	return &m, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFile(path string, f export.Format, st core.Statement) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return export.Write(file, f, st)
}
