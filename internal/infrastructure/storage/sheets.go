package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"BriefingAgent/internal/ports"
)

var _ ports.RowStore = (*Store)(nil)

// ReadAll returns every row of sheet in position order.
func (s *Store) ReadAll(ctx context.Context, sheet string) ([][]string, error) {
	query, args, err := builder.Select("cells").
		From("sheet_rows").
		Where(sq.Eq{"sheet": sheet}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// InsertRow places values at position, shifting that row and everything
// below it down by one. Positions past the end append.
func (s *Store) InsertRow(ctx context.Context, sheet string, values []string, position int) error {
	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode cells: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM sheet_rows WHERE sheet = ?", sheet).Scan(&count); err != nil {
			return fmt.Errorf("count rows: %w", err)
		}
		position = clampPosition(position, count)

		shift, args, err := builder.Update("sheet_rows").
			Set("position", sq.Expr("position + 1")).
			Where(sq.And{sq.Eq{"sheet": sheet}, sq.GtOrEq{"position": position}}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build shift: %w", err)
		}
		if _, err := tx.ExecContext(ctx, shift, args...); err != nil {
			return fmt.Errorf("shift rows: %w", err)
		}

		insert, args, err := builder.Insert("sheet_rows").
			Columns("sheet", "position", "cells").
			Values(sheet, position, string(encoded)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
		return nil
	})
}

// UpdateCell overwrites one cell, padding the row with empty cells if needed.
func (s *Store) UpdateCell(ctx context.Context, sheet string, row, col int, value string) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell %d:%d", row, col)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		cells, err := loadRow(ctx, tx, sheet, row)
		if err != nil {
			return err
		}
		return storeCell(ctx, tx, sheet, row, setCell(cells, col, value))
	})
}

// CompareAndSetCell writes value only while the cell still equals expected,
// ignoring case and surrounding whitespace.
func (s *Store) CompareAndSetCell(ctx context.Context, sheet string, row, col int, expected, value string) (bool, error) {
	if row < 1 || col < 1 {
		return false, fmt.Errorf("invalid cell %d:%d", row, col)
	}
	var swapped bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cells, err := loadRow(ctx, tx, sheet, row)
		if err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(cellAt(cells, col)), strings.TrimSpace(expected)) {
			return nil
		}
		if err := storeCell(ctx, tx, sheet, row, setCell(cells, col, value)); err != nil {
			return err
		}
		swapped = true
		return nil
	})
	return swapped, err
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func loadRow(ctx context.Context, tx *sql.Tx, sheet string, row int) ([]string, error) {
	query, args, err := builder.Select("cells").
		From("sheet_rows").
		Where(sq.Eq{"sheet": sheet, "position": row}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var raw string
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sheet %s has no row %d", sheet, row)
		}
		return nil, fmt.Errorf("load row %d: %w", row, err)
	}
	return decodeCells(raw)
}

func storeCell(ctx context.Context, tx *sql.Tx, sheet string, row int, cells []string) error {
	encoded, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("encode cells: %w", err)
	}

	query, args, err := builder.Update("sheet_rows").
		Set("cells", string(encoded)).
		Where(sq.Eq{"sheet": sheet, "position": row}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update row %d: %w", row, err)
	}
	return nil
}

func decodeCells(raw string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("decode cells: %w", err)
	}
	return cells, nil
}

func clampPosition(position, count int) int {
	if position < 1 {
		return 1
	}
	if position > count+1 {
		return count + 1
	}
	return position
}

func cellAt(cells []string, col int) string {
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}

func setCell(cells []string, col int, value string) []string {
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	return cells
}
