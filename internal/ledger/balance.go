package ledger

import (
	"context"
	"fmt"
	"time"

	"finledger/internal/core"
	"finledger/internal/storage"
)

// Direction selects whether a transaction's effect is added to or taken off
// its account.
type Direction int

const (
	Apply Direction = iota
	Reverse
)

// Effect is the balance delta of applying or reversing a transaction of the
// given type and amount.
func Effect(typ core.TransactionType, amount core.Money, dir Direction) core.Money {
	e := typ.Signed(amount)
	if dir == Reverse {
		return e.Neg()
	}
	return e
}

type adjustment struct {
	accountID string
	delta     core.Money
}

// planUpdate returns the balance writes that replace old's effect with
// updated's. An unchanged account gets one net write, or none when the
// effect is the same.
func planUpdate(old, updated core.Transaction) []adjustment {
	oldEffect := Effect(old.Type, old.Amount, Apply)
	newEffect := Effect(updated.Type, updated.Amount, Apply)

	if old.AccountID == updated.AccountID {
		net := newEffect.Sub(oldEffect)
		if net.IsZero() {
			return nil
		}
		return []adjustment{{accountID: old.AccountID, delta: net}}
	}
	return []adjustment{
		{accountID: old.AccountID, delta: oldEffect.Neg()},
		{accountID: updated.AccountID, delta: newEffect},
	}
}

// balanceMutator writes account balances. It must only be built on the
// Queries of an open transaction, so every increment commits or rolls back
// with the row write that caused it.
type balanceMutator struct {
	q      *storage.Queries
	userID string
	now    time.Time
}

func (m balanceMutator) mutate(ctx context.Context, t core.Transaction, dir Direction) error {
	return m.adjust(ctx, adjustment{accountID: t.AccountID, delta: Effect(t.Type, t.Amount, dir)})
}

func (m balanceMutator) adjust(ctx context.Context, adjs ...adjustment) error {
	for _, a := range adjs {
		if err := m.q.AddToBalance(ctx, a.accountID, m.userID, a.delta.Cents, m.now); err != nil {
			return fmt.Errorf("adjust balance of account %s by %d: %w", a.accountID, a.delta.Cents, err)
		}
	}
	return nil
}
