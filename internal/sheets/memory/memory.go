package memory

import (
	"context"
	"sync"

	"finledger/internal/core"
	"finledger/internal/sheets"
)

var _ sheets.Mirror = (*Store)(nil)

// Store is an in-process Mirror used in tests and when no spreadsheet is
// configured.
type Store struct {
	mu    sync.Mutex
	order []string
	rows  map[string][]any
}

func New() *Store {
	return &Store{rows: make(map[string][]any)}
}

func (s *Store) Upsert(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.rows[t.ID] = sheets.Row(t)
	return nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return nil
	}
	delete(s.rows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rows returns the mirrored rows in insertion order.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, append([]any(nil), s.rows[id]...))
	}
	return out
}
