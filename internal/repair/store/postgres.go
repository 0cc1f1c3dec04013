package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"stockroom/internal/repair/models"
	"stockroom/pkg/platform/sentinel"
	txcontext "stockroom/pkg/platform/tx"
)

const repairColumns = `repair_id, asset_id, issue_id, description, cost, status, created_by, user_name, created_at, updated_at, completed_at`

// Postgres persists repair and maintenance records.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, repair *models.RepairRecord) error {
	query := `
		INSERT INTO repair_records (` + repairColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		repair.ID,
		repair.AssetID,
		repair.IssueID,
		repair.Description,
		repair.Cost,
		string(repair.Status),
		repair.CreatedBy,
		repair.UserName,
		repair.CreatedAt,
		repair.UpdatedAt,
		repair.CompletedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert repair record: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.RepairRecord, error) {
	query := `SELECT ` + repairColumns + ` FROM repair_records WHERE repair_id = $1`
	repair, err := scanRepair(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find repair record: %w", err)
	}
	return repair, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.RepairRecord, error) {
	query := `SELECT ` + repairColumns + ` FROM repair_records ORDER BY created_at DESC, repair_id`
	return s.queryRepairs(ctx, query)
}

func (s *Postgres) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.RepairRecord, error) {
	query := `SELECT ` + repairColumns + ` FROM repair_records WHERE asset_id = $1 ORDER BY created_at DESC, repair_id`
	return s.queryRepairs(ctx, query, assetID)
}

// Complete transitions a pending record to Completed in a single conditional
// update, so two concurrent completions cannot both succeed.
func (s *Postgres) Complete(ctx context.Context, id uuid.UUID, now time.Time) (*models.RepairRecord, error) {
	query := `
		UPDATE repair_records
		SET status = $2, completed_at = $3, updated_at = $3
		WHERE repair_id = $1 AND status = $4
		RETURNING ` + repairColumns
	repair, err := scanRepair(s.execer(ctx).QueryRowContext(ctx, query, id, string(models.StatusCompleted), now, string(models.StatusPending)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.classifyMiss(ctx, id)
		}
		return nil, fmt.Errorf("complete repair record: %w", err)
	}
	return repair, nil
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM repair_records WHERE repair_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete repair record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete repair record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) CountOpenByAsset(ctx context.Context, assetID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM repair_records WHERE asset_id = $1 AND status = $2`
	var count int
	if err := s.execer(ctx).QueryRowContext(ctx, query, assetID, string(models.StatusPending)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open repairs: %w", err)
	}
	return count, nil
}

func (s *Postgres) CreateMaintenance(ctx context.Context, record *models.MaintenanceRecord) error {
	query := `
		INSERT INTO maintenance_records
			(maintenance_id, asset_id, description, performed_by, user_name, performed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		record.ID,
		record.AssetID,
		record.Description,
		record.PerformedBy,
		record.UserName,
		record.PerformedAt,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert maintenance record: %w", err)
	}
	return nil
}

func (s *Postgres) ListMaintenanceByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.MaintenanceRecord, error) {
	query := `
		SELECT maintenance_id, asset_id, description, performed_by, user_name, performed_at, created_at
		FROM maintenance_records
		WHERE asset_id = $1
		ORDER BY performed_at DESC, maintenance_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("list maintenance records: %w", err)
	}
	defer rows.Close()

	var out []*models.MaintenanceRecord
	for rows.Next() {
		var record models.MaintenanceRecord
		if err := rows.Scan(
			&record.ID,
			&record.AssetID,
			&record.Description,
			&record.PerformedBy,
			&record.UserName,
			&record.PerformedAt,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan maintenance record: %w", err)
		}
		out = append(out, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list maintenance records: %w", err)
	}
	return out, nil
}

func (s *Postgres) DeleteMaintenance(ctx context.Context, id uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM maintenance_records WHERE maintenance_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete maintenance record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete maintenance record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// classifyMiss distinguishes a missing record from one already completed
// after a conditional update matched no rows.
func (s *Postgres) classifyMiss(ctx context.Context, id uuid.UUID) error {
	var status string
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT status FROM repair_records WHERE repair_id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify repair miss: %w", err)
	}
	return sentinel.ErrInvalidState
}

func (s *Postgres) queryRepairs(ctx context.Context, query string, args ...any) ([]*models.RepairRecord, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query repair records: %w", err)
	}
	defer rows.Close()

	var out []*models.RepairRecord
	for rows.Next() {
		repair, err := scanRepair(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repair record: %w", err)
		}
		out = append(out, repair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query repair records: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepair(row rowScanner) (*models.RepairRecord, error) {
	var repair models.RepairRecord
	var status string
	if err := row.Scan(
		&repair.ID,
		&repair.AssetID,
		&repair.IssueID,
		&repair.Description,
		&repair.Cost,
		&status,
		&repair.CreatedBy,
		&repair.UserName,
		&repair.CreatedAt,
		&repair.UpdatedAt,
		&repair.CompletedAt,
	); err != nil {
		return nil, err
	}
	repair.Status = models.Status(status)
	return &repair, nil
}
