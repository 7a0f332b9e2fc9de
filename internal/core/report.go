package core

import "time"

// Summary is the dashboard headline for a user and month.
type Summary struct {
	Month              Month
	TotalBalance       Money
	MonthlyIncome      Money
	MonthlyExpense     Money
	RecentTransactions []Transaction
}

// Bucket is one named slice of a chart.
type Bucket struct {
	Name  string
	Value Money
	Color string
}

// MonthTotals holds completed income and expense for one month.
type MonthTotals struct {
	Month   Month
	Income  Money
	Expense Money
	Balance Money // Income - Expense
}

// CategoryTotal is a raw per-category sum as read from the store.
// CategoryID is empty for uncategorized transactions.
type CategoryTotal struct {
	CategoryID string
	Name       string
	Color      string
	Total      Money
}

// Reconciliation compares an account's stored balance to the sum of its
// transactions.
type Reconciliation struct {
	AccountID string
	Stored    Money
	Computed  Money
}

// Drift is Stored - Computed; zero when the ledger is consistent.
func (r Reconciliation) Drift() Money { return r.Stored.Sub(r.Computed) }

// Consistent reports whether the stored balance matches the transaction log.
func (r Reconciliation) Consistent() bool { return r.Drift().IsZero() }

// Statement is the printable monthly report of one user.
type Statement struct {
	Month             Month
	GeneratedAt       time.Time
	TotalBalance      Money
	Totals            MonthTotals
	IncomeByCategory  []Bucket
	ExpenseByCategory []Bucket
	Transactions      []Transaction
}
