package main

import (
	"finledger/internal/core"
)

// Amounts are integer minor units.

type transactionView struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Account     string `json:"accountName"`
	Category    string `json:"categoryName,omitempty"`
}

type summaryView struct {
	Month          string            `json:"month"`
	TotalBalance   int64             `json:"totalBalance"`
	MonthlyIncome  int64             `json:"monthlyIncome"`
	MonthlyExpense int64             `json:"monthlyExpense"`
	Recent         []transactionView `json:"recentTransactions"`
}

type bucketView struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

type monthView struct {
	Month   string `json:"month"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Balance int64  `json:"balance"`
}

type metaView struct {
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int   `json:"totalPages"`
}

type pageView struct {
	Items []transactionView `json:"items"`
	Meta  metaView          `json:"meta"`
}

type driftView struct {
	AccountID string `json:"accountId"`
	Stored    int64  `json:"stored"`
	Computed  int64  `json:"computed"`
	Drift     int64  `json:"drift"`
}

func toTransactions(ts []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(ts))
	for _, t := range ts {
		out = append(out, transactionView{
			ID:          t.ID,
			Date:        t.Date.String(),
			Type:        string(t.Type),
			Status:      string(t.Status),
			Amount:      t.Amount.Cents,
			Description: t.Description,
			Account:     t.AccountName,
			Category:    t.CategoryName,
		})
	}
	return out
}

func toSummary(s core.Summary) summaryView {
	return summaryView{
		Month:          s.Month.String(),
		TotalBalance:   s.TotalBalance.Cents,
		MonthlyIncome:  s.MonthlyIncome.Cents,
		MonthlyExpense: s.MonthlyExpense.Cents,
		Recent:         toTransactions(s.RecentTransactions),
	}
}

func toBuckets(bs []core.Bucket) []bucketView {
	out := make([]bucketView, 0, len(bs))
	for _, b := range bs {
		out = append(out, bucketView{Name: b.Name, Value: b.Value.Cents, Color: b.Color})
	}
	return out
}

func toMonths(ms []core.MonthTotals) []monthView {
	out := make([]monthView, 0, len(ms))
	for _, m := range ms {
		out = append(out, monthView{
			Month:   m.Month.String(),
			Income:  m.Income.Cents,
			Expense: m.Expense.Cents,
			Balance: m.Balance.Cents,
		})
	}
	return out
}

func toPage(p core.TransactionPage) pageView {
	return pageView{
		Items: toTransactions(p.Items),
		Meta: metaView{
			CurrentPage:  p.Meta.CurrentPage,
			ItemsPerPage: p.Meta.ItemsPerPage,
			TotalItems:   p.Meta.TotalItems,
			TotalPages:   p.Meta.TotalPages,
		},
	}
}

func toDrift(rs []core.Reconciliation) []driftView {
	out := make([]driftView, 0, len(rs))
	for _, r := range rs {
		out = append(out, driftView{
			AccountID: r.AccountID,
			Stored:    r.Stored.Cents,
			Computed:  r.Computed.Cents,
			Drift:     r.Drift().Cents,
		})
	}
	return out
}
