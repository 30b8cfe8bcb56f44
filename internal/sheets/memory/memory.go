package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"kopilka/internal/sheets"
)

var _ sheets.Exporter = (*Store)(nil)

// Store keeps exported rows in memory. Exporting the same expense twice
// replaces the earlier row.
type Store struct {
	mu    sync.Mutex
	rows  []sheets.ExportRow
	index map[int64]int
}

func New() *Store {
	return &Store{index: map[int64]int{}}
}

func (s *Store) Export(_ context.Context, row sheets.ExportRow) (string, error) {
	if row.ExpenseID <= 0 {
		return "", errors.New("export row without expense id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[row.ExpenseID]; ok {
		s.rows[i] = row
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	s.rows = append(s.rows, row)
	s.index[row.ExpenseID] = len(s.rows) - 1
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the exported rows in insertion order.
func (s *Store) Rows() []sheets.ExportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.ExportRow(nil), s.rows...)
}
