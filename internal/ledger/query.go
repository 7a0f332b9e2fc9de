package ledger

import (
	"context"
	"strings"

	"finledger/internal/core"
	"finledger/internal/log"
)

// ListTransactions is the Transaction Query Engine. Filter, sort and page are
// validated before the store is touched.
func (s *Service) ListTransactions(ctx context.Context, userID string, filter core.TransactionFilter, sort core.Sort, page core.Page) (core.TransactionPage, error) {
	const op = "ledger.list"
	if err := requireUser(op, userID); err != nil {
		return core.TransactionPage{}, err
	}
	page = page.Normalize()
	query, err := buildQuery(filter, sort, page)
	if err != nil {
		return core.TransactionPage{}, core.Validation(op, err)
	}

	items, total, err := s.store.ListTransactions(ctx, userID, query)
	if err != nil {
		return core.TransactionPage{}, s.fail(ctx, op, err, log.NewFields().WithUser(userID))
	}
	if items == nil {
		items = []core.Transaction{}
	}
	return core.TransactionPage{Items: items, Meta: page.Meta(total)}, nil
}

// buildQuery turns a caller filter into a store query. A month filter covers
// the first through the last day of that month.
func buildQuery(filter core.TransactionFilter, sort core.Sort, page core.Page) (core.TransactionQuery, error) {
	if err := page.Validate(); err != nil {
		return core.TransactionQuery{}, err
	}
	sort = sort.Normalize()
	if err := sort.Validate(); err != nil {
		return core.TransactionQuery{}, err
	}
	if filter.Type != "" {
		if err := filter.Type.Validate(); err != nil {
			return core.TransactionQuery{}, err
		}
	}

	var r core.DateRange
	if (filter.Month == 0) != (filter.Year == 0) {
		return core.TransactionQuery{}, core.ErrMonthWithoutYear
	}
	if filter.Month != 0 {
		m, err := core.NewMonth(filter.Year, filter.Month)
		if err != nil {
			return core.TransactionQuery{}, err
		}
		r = core.DateRange{From: m.First(), To: m.Last()}
	}

	return core.TransactionQuery{
		Type:       filter.Type,
		AccountID:  strings.TrimSpace(filter.AccountID),
		CategoryID: strings.TrimSpace(filter.CategoryID),
		Range:      r,
		Search:     strings.TrimSpace(filter.Search),
		Sort:       sort,
		Limit:      page.Size,
		Offset:     page.Offset(),
	}, nil
}
