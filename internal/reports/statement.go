package reports

import (
	"context"

	"golang.org/x/sync/errgroup"

	"finledger/internal/core"
)

// Statement collects everything printed on a monthly statement. It is not
// cached.
func (a *Aggregator) Statement(ctx context.Context, userID string, month *core.Month) (core.Statement, error) {
	const op = "reports.statement"
	if userID == "" {
		return core.Statement{}, core.Forbidden(op, "caller is not identified")
	}
	m := a.resolve(month)
	st := core.Statement{Month: m, GeneratedAt: a.now().UTC()}
	r := monthRange(m)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := a.store.TotalBalance(gctx, userID)
		st.TotalBalance = core.Money{Cents: total}
		return err
	})
	g.Go(func() error {
		income, expense, err := a.store.MonthTotals(gctx, userID, r)
		st.Totals = core.MonthTotals{
			Month:   m,
			Income:  core.Money{Cents: income},
			Expense: core.Money{Cents: expense},
			Balance: core.Money{Cents: income - expense},
		}
		return err
	})
	g.Go(func() error {
		totals, err := a.store.CategoryTotals(gctx, userID, core.Income, r)
		st.IncomeByCategory = categoryBuckets(totals)
		return err
	})
	g.Go(func() error {
		totals, err := a.store.CategoryTotals(gctx, userID, core.Expense, r)
		st.ExpenseByCategory = categoryBuckets(totals)
		return err
	})
	g.Go(func() error {
		txs, err := a.store.TransactionsInRange(gctx, userID, r)
		for i := range txs {
			if txs[i].CategoryID == "" {
				txs[i].CategoryName = UncategorizedName
			}
		}
		st.Transactions = txs
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Statement{}, a.fail(ctx, op, userID, err)
	}
	return st, nil
}
