package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"BriefingAgent/internal/ports"
)

// MemorySheets is a process-local RowStore with the same row semantics as
// Store. It is the test double for packages built on record and user sheets.
type MemorySheets struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

var _ ports.RowStore = (*MemorySheets)(nil)

// NewMemorySheets builds an empty row store.
func NewMemorySheets() *MemorySheets {
	return &MemorySheets{sheets: map[string][][]string{}}
}

// Seed replaces a sheet's content.
func (m *MemorySheets) Seed(sheet string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet] = copyRows(rows)
}

// ReadAll returns a copy of every row of sheet.
func (m *MemorySheets) ReadAll(_ context.Context, sheet string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyRows(m.sheets[sheet]), nil
}

// InsertRow places values at position, shifting later rows down.
func (m *MemorySheets) InsertRow(_ context.Context, sheet string, values []string, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.sheets[sheet]
	position = clampPosition(position, len(rows))
	row := append([]string(nil), values...)

	rows = append(rows, nil)
	copy(rows[position:], rows[position-1:])
	rows[position-1] = row
	m.sheets[sheet] = rows
	return nil
}

// UpdateCell overwrites one cell.
func (m *MemorySheets) UpdateCell(_ context.Context, sheet string, row, col int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.sheets[sheet]
	if row < 1 || row > len(rows) || col < 1 {
		return fmt.Errorf("sheet %s has no cell %d:%d", sheet, row, col)
	}
	rows[row-1] = setCell(rows[row-1], col, value)
	return nil
}

// CompareAndSetCell writes value only while the cell still equals expected.
func (m *MemorySheets) CompareAndSetCell(_ context.Context, sheet string, row, col int, expected, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.sheets[sheet]
	if row < 1 || row > len(rows) || col < 1 {
		return false, fmt.Errorf("sheet %s has no cell %d:%d", sheet, row, col)
	}
	if !strings.EqualFold(strings.TrimSpace(cellAt(rows[row-1], col)), strings.TrimSpace(expected)) {
		return false, nil
	}
	rows[row-1] = setCell(rows[row-1], col, value)
	return true, nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
