package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"finledger/internal/cache"
	"finledger/internal/core"
	"finledger/internal/log"
)

const (
	IncomeLabel  = "Receitas"
	ExpenseLabel = "Despesas"
	IncomeColor  = "#22c55e"
	ExpenseColor = "#ef4444"

	UncategorizedName  = "Uncategorized"
	UncategorizedColor = "#9ca3af"

	RecentLimit   = 5
	DefaultWindow = 6
	MaxWindow     = 24
)

var ErrInvalidWindow = fmt.Errorf("invalid window: must be between 1 and %d months", MaxWindow)

// Store is the read side of the ledger the aggregator needs.
type Store interface {
	TotalBalance(ctx context.Context, userID string) (int64, error)
	MonthTotals(ctx context.Context, userID string, r core.DateRange) (income, expense int64, err error)
	CategoryTotals(ctx context.Context, userID string, typ core.TransactionType, r core.DateRange) ([]core.CategoryTotal, error)
	RecentTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error)
	TransactionsInRange(ctx context.Context, userID string, r core.DateRange) ([]core.Transaction, error)
}

type Options struct {
	// Cache holds computed views per user. Nil disables caching.
	Cache *cache.Namespaced[any]
	// Window is the MonthlyData length used when callers pass 0.
	Window   int
	Location *time.Location
	Logger   *log.Logger
	Now      func() time.Time
}

// Aggregator computes the report views. Views are cached per user until the
// next ledger write for that user.
type Aggregator struct {
	store    Store
	cache    *cache.Namespaced[any]
	group    singleflight.Group
	window   int
	location *time.Location
	logger   *log.Logger
	now      func() time.Time
}

func NewAggregator(store Store, opts Options) *Aggregator {
	a := &Aggregator{
		store:    store,
		cache:    opts.Cache,
		window:   opts.Window,
		location: opts.Location,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if a.window <= 0 || a.window > MaxWindow {
		a.window = DefaultWindow
	}
	if a.location == nil {
		a.location = time.Local
	}
	if a.logger == nil {
		a.logger = log.New(log.DefaultConfig())
	}
	a.logger = a.logger.WithComponent(log.ComponentReports)
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// InvalidateUser drops every cached view of userID.
func (a *Aggregator) InvalidateUser(userID string) {
	if a.cache == nil {
		return
	}
	n := a.cache.Invalidate(userID)
	a.logger.Debug("Report cache invalidated", log.FieldUserID, userID, "entries", n)
}

// CurrentMonth is the calendar month at call time in the configured zone.
func (a *Aggregator) CurrentMonth() core.Month {
	return core.MonthOf(a.now().In(a.location))
}

// resolve returns m, or the current month when m is nil.
func (a *Aggregator) resolve(m *core.Month) core.Month {
	if m == nil {
		return a.CurrentMonth()
	}
	return *m
}

func monthRange(m core.Month) core.DateRange {
	return core.DateRange{From: m.First(), To: m.Last()}
}

// Summary returns the headline view for a month. A nil month means the
// current one.
func (a *Aggregator) Summary(ctx context.Context, userID string, month *core.Month) (core.Summary, error) {
	const op = "reports.summary"
	if userID == "" {
		return core.Summary{}, core.Forbidden(op, "caller is not identified")
	}
	m := a.resolve(month)
	return cached(a, ctx, op, userID, "summary:"+m.String(), func(ctx context.Context) (core.Summary, error) {
		return a.summary(ctx, userID, m)
	})
}

func (a *Aggregator) summary(ctx context.Context, userID string, m core.Month) (core.Summary, error) {
	var (
		s       = core.Summary{Month: m}
		g, gctx = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		total, err := a.store.TotalBalance(gctx, userID)
		s.TotalBalance = core.Money{Cents: total}
		return err
	})
	g.Go(func() error {
		income, expense, err := a.store.MonthTotals(gctx, userID, monthRange(m))
		s.MonthlyIncome = core.Money{Cents: income}
		s.MonthlyExpense = core.Money{Cents: expense}
		return err
	})
	g.Go(func() error {
		recent, err := a.store.RecentTransactions(gctx, userID, RecentLimit)
		if err != nil {
			return err
		}
		for i := range recent {
			if recent[i].CategoryID == "" {
				recent[i].CategoryName = UncategorizedName
			}
		}
		if recent == nil {
			recent = []core.Transaction{}
		}
		s.RecentTransactions = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, err
	}
	return s, nil
}

// IncomeVsExpense returns the income and expense buckets, in that order.
func (a *Aggregator) IncomeVsExpense(ctx context.Context, userID string, month *core.Month) ([]core.Bucket, error) {
	const op = "reports.income_vs_expense"
	if userID == "" {
		return nil, core.Forbidden(op, "caller is not identified")
	}
	m := a.resolve(month)
	return cached(a, ctx, op, userID, "income_vs_expense:"+m.String(), func(ctx context.Context) ([]core.Bucket, error) {
		income, expense, err := a.store.MonthTotals(ctx, userID, monthRange(m))
		if err != nil {
			return nil, err
		}
		return []core.Bucket{
			{Name: IncomeLabel, Value: core.Money{Cents: income}, Color: IncomeColor},
			{Name: ExpenseLabel, Value: core.Money{Cents: expense}, Color: ExpenseColor},
		}, nil
	})
}

// ByCategory sums completed transactions of typ per category, largest first.
// Categories without transactions in the month are absent.
func (a *Aggregator) ByCategory(ctx context.Context, userID string, typ core.TransactionType, month *core.Month) ([]core.Bucket, error) {
	const op = "reports.by_category"
	if userID == "" {
		return nil, core.Forbidden(op, "caller is not identified")
	}
	if err := typ.Validate(); err != nil {
		return nil, core.Validation(op, err)
	}
	m := a.resolve(month)
	key := "by_category:" + string(typ) + ":" + m.String()
	return cached(a, ctx, op, userID, key, func(ctx context.Context) ([]core.Bucket, error) {
		totals, err := a.store.CategoryTotals(ctx, userID, typ, monthRange(m))
		if err != nil {
			return nil, err
		}
		return categoryBuckets(totals), nil
	})
}

func categoryBuckets(totals []core.CategoryTotal) []core.Bucket {
	out := make([]core.Bucket, 0, len(totals))
	for _, t := range totals {
		if t.Total.IsZero() {
			continue
		}
		b := core.Bucket{Name: t.Name, Value: t.Total, Color: t.Color}
		if t.CategoryID == "" {
			b.Name, b.Color = UncategorizedName, UncategorizedColor
		}
		if b.Color == "" {
			b.Color = UncategorizedColor
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value.Cents != out[j].Value.Cents {
			return out[i].Value.Cents > out[j].Value.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthlyData returns totals for the window months ending at month, oldest
// first. A zero window uses the configured default.
func (a *Aggregator) MonthlyData(ctx context.Context, userID string, month *core.Month, window int) ([]core.MonthTotals, error) {
	const op = "reports.monthly"
	if userID == "" {
		return nil, core.Forbidden(op, "caller is not identified")
	}
	if window == 0 {
		window = a.window
	}
	if window < 1 || window > MaxWindow {
		return nil, core.Validation(op, ErrInvalidWindow)
	}
	m := a.resolve(month)
	key := fmt.Sprintf("monthly:%s:%d", m, window)
	return cached(a, ctx, op, userID, key, func(ctx context.Context) ([]core.MonthTotals, error) {
		return a.monthly(ctx, userID, m, window)
	})
}

// monthly fetches each month independently; results land in their slot so
// the order never depends on completion order.
func (a *Aggregator) monthly(ctx context.Context, userID string, end core.Month, window int) ([]core.MonthTotals, error) {
	months := end.TrailingWindow(window)
	out := make([]core.MonthTotals, len(months))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := len(months) - 1; i >= 0; i-- {
		i := i
		g.Go(func() error {
			m := months[i]
			income, expense, err := a.store.MonthTotals(gctx, userID, monthRange(m))
			if err != nil {
				return fmt.Errorf("totals for %s: %w", m, err)
			}
			out[i] = core.MonthTotals{
				Month:   m,
				Income:  core.Money{Cents: income},
				Expense: core.Money{Cents: expense},
				Balance: core.Money{Cents: income - expense},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// cached serves key from the user's namespace or computes it once, sharing
// the result with concurrent callers of the same key. Cached values are
// shared and must not be modified.
func cached[T any](a *Aggregator, ctx context.Context, op, userID, key string, fill func(context.Context) (T, error)) (T, error) {
	var zero T
	if a.cache == nil {
		v, err := fill(ctx)
		if err != nil {
			return zero, a.fail(ctx, op, userID, err)
		}
		return v, nil
	}

	full := a.cache.Key(userID, key)
	if v, ok := a.cache.Get(full); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	// The shared fill outlives any one caller; each caller stops waiting on
	// its own cancellation.
	ch := a.group.DoChan(full, func() (any, error) {
		t, err := fill(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		a.cache.Set(full, t)
		return t, nil
	})
	select {
	case <-ctx.Done():
		return zero, core.Internal(op, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, a.fail(ctx, op, userID, res.Err)
		}
		return res.Val.(T), nil
	}
}

func (a *Aggregator) fail(ctx context.Context, op, userID string, err error) error {
	a.logger.ErrorContext(ctx, "Report query failed",
		log.NewFields().WithOperation(op).WithUser(userID).
			WithErrorType(log.ErrorTypeDatabase).WithError(err).ToSlice()...)
	return core.Internal(op, err)
}
