package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/ports"
)

// TopRow is where new records are inserted: directly below the header, so
// the newest draft is the first row a reviewer sees.
const TopRow = 2

// Entry is a scanned record with its current sheet row.
type Entry struct {
	Row    int
	Record domain.ContentRecord
}

// Store is the ordered log of generated records on a shared sheet.
type Store struct {
	rows   ports.RowStore
	sheet  string
	logger *slog.Logger
}

// NewStore binds a record sheet of the row store.
func NewStore(rows ports.RowStore, sheet string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{rows: rows, sheet: sheet, logger: logger}
}

// Append inserts record at the top slot, writing the header first when the
// sheet is empty.
func (s *Store) Append(ctx context.Context, record domain.ContentRecord) error {
	existing, err := s.rows.ReadAll(ctx, s.sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w: %w", s.sheet, domain.ErrTransport, err)
	}
	if len(existing) == 0 {
		if err := s.rows.InsertRow(ctx, s.sheet, domain.RecordHeader, 1); err != nil {
			return fmt.Errorf("write %s header: %w: %w", s.sheet, domain.ErrTransport, err)
		}
	}

	if err := s.rows.InsertRow(ctx, s.sheet, record.Cells(), TopRow); err != nil {
		return fmt.Errorf("insert %s record: %w: %w", s.sheet, domain.ErrTransport, err)
	}

	s.logger.Info("record appended", "sheet", s.sheet, "task", record.Task, "subject", record.Subject, "status", record.Status)
	return nil
}

// Scan returns every well-formed record in sheet order. Malformed rows are
// logged and skipped; they never abort the scan.
func (s *Store) Scan(ctx context.Context) ([]Entry, error) {
	rows, err := s.rows.ReadAll(ctx, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", s.sheet, domain.ErrTransport, err)
	}

	entries := make([]Entry, 0, len(rows))
	for i := 1; i < len(rows); i++ {
		row := i + 1
		if isBlank(rows[i]) {
			continue
		}
		record, err := domain.RecordFromCells(rows[i])
		if err != nil {
			s.logger.Warn("row skipped", "sheet", s.sheet, "row", row, "error", err)
			continue
		}
		entries = append(entries, Entry{Row: row, Record: record})
	}
	return entries, nil
}

// SetStatus overwrites the status cell unconditionally.
func (s *Store) SetStatus(ctx context.Context, row int, status domain.Status) error {
	if err := s.rows.UpdateCell(ctx, s.sheet, row, domain.ColumnStatus, string(status)); err != nil {
		return fmt.Errorf("update %s row %d: %w: %w", s.sheet, row, domain.ErrTransport, err)
	}
	return nil
}

// ErrStatusChanged is returned by Transition when another writer changed the
// row after it was scanned.
var ErrStatusChanged = errors.New("status changed concurrently")

// Transition moves a row from one status to another only if the sheet still
// shows from. Terminal statuses are never left.
func (s *Store) Transition(ctx context.Context, row int, from, to domain.Status) error {
	if from.Terminal() {
		return fmt.Errorf("row %d: %s is terminal", row, from)
	}

	ok, err := s.rows.CompareAndSetCell(ctx, s.sheet, row, domain.ColumnStatus, string(from), string(to))
	if err != nil {
		return fmt.Errorf("transition %s row %d: %w: %w", s.sheet, row, domain.ErrTransport, err)
	}
	if !ok {
		return fmt.Errorf("transition %s row %d %s->%s: %w", s.sheet, row, from, to, ErrStatusChanged)
	}
	return nil
}

// Holds re-reads a row and reports whether its status cell still shows
// status. It only reads; the cell keeps whatever the reviewer typed.
func (s *Store) Holds(ctx context.Context, row int, status domain.Status) (bool, error) {
	rows, err := s.rows.ReadAll(ctx, s.sheet)
	if err != nil {
		return false, fmt.Errorf("check %s row %d: %w: %w", s.sheet, row, domain.ErrTransport, err)
	}
	if row < 1 || row > len(rows) {
		return false, nil
	}
	cells := rows[row-1]
	if len(cells) < domain.ColumnStatus {
		return false, nil
	}
	return domain.ParseStatus(cells[domain.ColumnStatus-1]) == status, nil
}

// ErrRowNotFound is returned by Review for rows that hold no record.
var ErrRowNotFound = errors.New("record row not found")

// Review applies a reviewer decision to a row. Only Approved and Reject are
// accepted, and terminal rows are refused.
func (s *Store) Review(ctx context.Context, row int, decision domain.Status) (domain.ContentRecord, error) {
	if decision != domain.StatusApproved && decision != domain.StatusReject {
		return domain.ContentRecord{}, fmt.Errorf("review row %d: %s is not a reviewer decision", row, decision)
	}

	entries, err := s.Scan(ctx)
	if err != nil {
		return domain.ContentRecord{}, err
	}
	for _, entry := range entries {
		if entry.Row != row {
			continue
		}
		current := entry.Record.Status
		if current.Terminal() {
			return domain.ContentRecord{}, fmt.Errorf("review row %d: %s is terminal", row, current)
		}
		if current == decision {
			return entry.Record, nil
		}
		if err := s.Transition(ctx, row, current, decision); err != nil {
			return domain.ContentRecord{}, err
		}
		entry.Record.Status = decision
		s.logger.Info("record reviewed", "row", row, "task", entry.Record.Task, "from", current, "to", decision)
		return entry.Record, nil
	}
	return domain.ContentRecord{}, fmt.Errorf("review %s row %d: %w", s.sheet, row, ErrRowNotFound)
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
