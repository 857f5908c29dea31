package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/ports"
)

// RotationRepository stores rotation pointers per task domain.
type RotationRepository struct {
	db *sql.DB
}

var _ ports.RotationRepository = (*RotationRepository)(nil)

// Rotation exposes the rotation table of the store.
func (s *Store) Rotation() *RotationRepository {
	return &RotationRepository{db: s.db}
}

// Load returns the stored state, or the zero state for an unknown key.
func (r *RotationRepository) Load(ctx context.Context, key string) (domain.RotationState, error) {
	query, args, err := builder.Select("current_index", "last_updated", "last_label").
		From("rotation_state").
		Where(sq.Eq{"domain_key": key}).
		ToSql()
	if err != nil {
		return domain.RotationState{}, fmt.Errorf("build select: %w", err)
	}

	var state domain.RotationState
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&state.CurrentIndex, &state.LastUpdated, &state.LastLabel)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RotationState{}, nil
	}
	if err != nil {
		return domain.RotationState{}, fmt.Errorf("load rotation %s: %w", key, err)
	}
	return state, nil
}

// Save upserts the state for key.
func (r *RotationRepository) Save(ctx context.Context, key string, state domain.RotationState) error {
	query, args, err := builder.Insert("rotation_state").
		Columns("domain_key", "current_index", "last_updated", "last_label").
		Values(key, state.CurrentIndex, state.LastUpdated, state.LastLabel).
		Suffix(`ON CONFLICT (domain_key) DO UPDATE SET
			current_index = excluded.current_index,
			last_updated = excluded.last_updated,
			last_label = excluded.last_label`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save rotation %s: %w", key, err)
	}
	return nil
}

const historyBatch = 400

// HistoryRepository stores dedup identifiers per scope. Rows are only ever
// inserted.
type HistoryRepository struct {
	db *sql.DB
}

var _ ports.HistoryRepository = (*HistoryRepository)(nil)

// History exposes the dedup table of the store.
func (s *Store) History() *HistoryRepository {
	return &HistoryRepository{db: s.db}
}

// Load returns every identifier recorded under scope.
func (r *HistoryRepository) Load(ctx context.Context, scope string) (domain.History, error) {
	query, args, err := builder.Select("identifier").
		From("dedup_history").
		Where(sq.Eq{"scope": scope}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := domain.NewHistory()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		history.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return history, nil
}

// Save adds every identifier of history; existing ones are left untouched
// and nothing is ever removed.
func (r *HistoryRepository) Save(ctx context.Context, scope string, history domain.History) error {
	ids := make([]string, 0, len(history))
	for id := range history {
		ids = append(ids, id)
	}

	for start := 0; start < len(ids); start += historyBatch {
		end := min(start+historyBatch, len(ids))

		insert := builder.Insert("dedup_history").Options("OR IGNORE").Columns("scope", "identifier")
		for _, id := range ids[start:end] {
			insert = insert.Values(scope, id)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("save history %s: %w", scope, err)
		}
	}
	return nil
}
