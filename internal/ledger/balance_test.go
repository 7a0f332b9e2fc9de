package ledger

import (
	"testing"

	"finledger/internal/core"
)

func TestEffect(t *testing.T) {
	tests := []struct {
		typ  core.TransactionType
		dir  Direction
		want int64
	}{
		{core.Income, Apply, 500},
		{core.Expense, Apply, -500},
		{core.Income, Reverse, -500},
		{core.Expense, Reverse, 500},
	}
	for _, tt := range tests {
		if got := Effect(tt.typ, core.Money{Cents: 500}, tt.dir).Cents; got != tt.want {
			t.Errorf("Effect(%s, %d) = %d, want %d", tt.typ, tt.dir, got, tt.want)
		}
	}
}

func TestPlanUpdate(t *testing.T) {
	base := core.Transaction{AccountID: "a", Type: core.Expense, Amount: core.Money{Cents: 2000}}

	tests := []struct {
		name   string
		change func(core.Transaction) core.Transaction
		want   []adjustment
	}{
		{"no balance change", func(tx core.Transaction) core.Transaction {
			tx.Description = "other"
			return tx
		}, nil},
		{"amount only", func(tx core.Transaction) core.Transaction {
			tx.Amount = core.Money{Cents: 2500}
			return tx
		}, []adjustment{{"a", core.Money{Cents: -500}}}},
		{"type flip", func(tx core.Transaction) core.Transaction {
			tx.Type = core.Income
			return tx
		}, []adjustment{{"a", core.Money{Cents: 4000}}}},
		{"account and amount", func(tx core.Transaction) core.Transaction {
			tx.AccountID = "b"
			tx.Amount = core.Money{Cents: 100}
			tx.Type = core.Income
			return tx
		}, []adjustment{{"a", core.Money{Cents: 2000}}, {"b", core.Money{Cents: 100}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planUpdate(base, tt.change(base))
			if len(got) != len(tt.want) {
				t.Fatalf("planUpdate = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("adjustment %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
