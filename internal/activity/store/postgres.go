package store

import (
	"context"
	"database/sql"
	"fmt"

	"stockroom/internal/activity"
	txcontext "stockroom/pkg/platform/tx"
)

// Postgres appends audit trail rows. The table is append-only; there is no
// update or delete path.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Append(ctx context.Context, event activity.Event) error {
	query := `
		INSERT INTO asset_activity_logs
			(log_id, asset_id, action, field_changed, old_value, new_value, modified_by, user_name, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		event.AssetID,
		string(event.Action),
		event.Field,
		event.OldValue,
		event.NewValue,
		event.ModifiedBy,
		event.UserName,
		event.Context,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append activity event: %w", err)
	}
	return nil
}

func (s *Postgres) ListByAsset(ctx context.Context, assetID string) ([]activity.Event, error) {
	query := `
		SELECT log_id, asset_id, action, field_changed, old_value, new_value, modified_by, user_name, context, created_at
		FROM asset_activity_logs
		WHERE asset_id = $1
		ORDER BY created_at DESC, log_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("list activity events: %w", err)
	}
	defer rows.Close()

	var out []activity.Event
	for rows.Next() {
		var event activity.Event
		var action string
		if err := rows.Scan(
			&event.ID,
			&event.AssetID,
			&action,
			&event.Field,
			&event.OldValue,
			&event.NewValue,
			&event.ModifiedBy,
			&event.UserName,
			&event.Context,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		event.Action = activity.Action(action)
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activity events: %w", err)
	}
	return out, nil
}
