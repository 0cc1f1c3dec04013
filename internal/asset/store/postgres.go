package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"stockroom/internal/asset/models"
	"stockroom/pkg/platform/sentinel"
	txcontext "stockroom/pkg/platform/tx"
)

const assetColumns = `asset_id, name, product_code, serial_number, unit_cost, quantity,
		borrowed_quantity, active, has_issue, under_repair, added_by, user_name, created_at, updated_at`

// Postgres persists assets in PostgreSQL. The store is pure I/O; availability
// rules live in the conditional updates and the services that call them.
// All methods participate in an enclosing transaction when one is present in
// the context.
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

func (s *Postgres) Create(ctx context.Context, asset *models.Asset) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		asset.ID,
		asset.Name,
		asset.ProductCode,
		asset.SerialNumber,
		asset.UnitCost,
		asset.Quantity,
		asset.BorrowedQuantity,
		asset.Active,
		asset.HasIssue,
		asset.UnderRepair,
		asset.AddedBy,
		asset.UserName,
		asset.CreatedAt,
		asset.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE asset_id = $1`
	asset, err := scanAsset(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find asset: %w", err)
	}
	return asset, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY created_at DESC, asset_id`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []*models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return out, nil
}

func (s *Postgres) Update(ctx context.Context, asset *models.Asset) error {
	query := `
		UPDATE assets
		SET name = $2, product_code = $3, serial_number = $4, unit_cost = $5, updated_at = $6
		WHERE asset_id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		asset.ID,
		asset.Name,
		asset.ProductCode,
		asset.SerialNumber,
		asset.UnitCost,
		asset.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update asset: %w", err)
	}
	return requireRow(res, "update asset")
}

func (s *Postgres) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `UPDATE assets SET active = FALSE, updated_at = $2 WHERE asset_id = $1`
	res, err := s.execer(ctx).ExecContext(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("deactivate asset: %w", err)
	}
	return requireRow(res, "deactivate asset")
}

// DeductForIssue atomically removes n units and flags the open issue in a
// single conditional update. A zero-row result means either the asset is
// missing or fewer than n units are on hand; the follow-up read distinguishes
// the two without ever leaving a partial deduction behind.
func (s *Postgres) DeductForIssue(ctx context.Context, id uuid.UUID, n int, now time.Time) (*models.Asset, error) {
	query := `
		UPDATE assets
		SET quantity = quantity - $2, has_issue = TRUE, updated_at = $3
		WHERE asset_id = $1 AND quantity >= $2
		RETURNING ` + assetColumns
	asset, err := scanAsset(s.execer(ctx).QueryRowContext(ctx, query, id, n, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.classifyMiss(ctx, id)
		}
		return nil, fmt.Errorf("deduct for issue: %w", err)
	}
	return asset, nil
}

// RestoreQuantity adds n units back and writes the caller-computed issue flag.
func (s *Postgres) RestoreQuantity(ctx context.Context, id uuid.UUID, n int, hasIssue bool, now time.Time) (*models.Asset, error) {
	query := `
		UPDATE assets
		SET quantity = quantity + $2, has_issue = $3, updated_at = $4
		WHERE asset_id = $1
		RETURNING ` + assetColumns
	asset, err := scanAsset(s.execer(ctx).QueryRowContext(ctx, query, id, n, hasIssue, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("restore quantity: %w", err)
	}
	return asset, nil
}

func (s *Postgres) DeductQuantity(ctx context.Context, id uuid.UUID, n int, now time.Time) (*models.Asset, error) {
	query := `
		UPDATE assets
		SET quantity = quantity - $2, updated_at = $3
		WHERE asset_id = $1 AND quantity >= $2
		RETURNING ` + assetColumns
	asset, err := scanAsset(s.execer(ctx).QueryRowContext(ctx, query, id, n, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.classifyMiss(ctx, id)
		}
		return nil, fmt.Errorf("deduct quantity: %w", err)
	}
	return asset, nil
}

func (s *Postgres) AddQuantity(ctx context.Context, id uuid.UUID, n int, now time.Time) (*models.Asset, error) {
	query := `
		UPDATE assets
		SET quantity = quantity + $2, updated_at = $3
		WHERE asset_id = $1
		RETURNING ` + assetColumns
	asset, err := scanAsset(s.execer(ctx).QueryRowContext(ctx, query, id, n, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("add quantity: %w", err)
	}
	return asset, nil
}

func (s *Postgres) ReserveForBorrowing(ctx context.Context, id uuid.UUID, n int, now time.Time) (*models.Asset, error) {
	query := `
		UPDATE assets
		SET quantity = quantity - $2, borrowed_quantity = borrowed_quantity + $2, updated_at = $3
		WHERE asset_id = $1 AND quantity >= $2
		RETURNING ` + assetColumns
	asset, err := scanAsset(s.execer(ctx).QueryRowContext(ctx, query, id, n, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.classifyMiss(ctx, id)
		}
		return nil, fmt.Errorf("reserve for borrowing: %w", err)
	}
	return asset, nil
}

func (s *Postgres) ReleaseFromBorrowing(ctx context.Context, id uuid.UUID, n int, now time.Time) (*models.Asset, error) {
	query := `
		UPDATE assets
		SET quantity = quantity + $2, borrowed_quantity = borrowed_quantity - $2, updated_at = $3
		WHERE asset_id = $1 AND borrowed_quantity >= $2
		RETURNING ` + assetColumns
	asset, err := scanAsset(s.execer(ctx).QueryRowContext(ctx, query, id, n, now))
	if err != nil {
		if err == sql.ErrNoRows {
			if _, findErr := s.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, sentinel.ErrInvalidState
		}
		return nil, fmt.Errorf("release from borrowing: %w", err)
	}
	return asset, nil
}

func (s *Postgres) SetUnderRepair(ctx context.Context, id uuid.UUID, underRepair bool, now time.Time) error {
	query := `UPDATE assets SET under_repair = $2, updated_at = $3 WHERE asset_id = $1`
	res, err := s.execer(ctx).ExecContext(ctx, query, id, underRepair, now)
	if err != nil {
		return fmt.Errorf("set under repair: %w", err)
	}
	return requireRow(res, "set under repair")
}

// classifyMiss distinguishes a missing asset from an insufficient balance
// after a conditional update matched no row.
func (s *Postgres) classifyMiss(ctx context.Context, id uuid.UUID) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return sentinel.ErrInsufficientQuantity
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*models.Asset, error) {
	var asset models.Asset
	err := row.Scan(
		&asset.ID,
		&asset.Name,
		&asset.ProductCode,
		&asset.SerialNumber,
		&asset.UnitCost,
		&asset.Quantity,
		&asset.BorrowedQuantity,
		&asset.Active,
		&asset.HasIssue,
		&asset.UnderRepair,
		&asset.AddedBy,
		&asset.UserName,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}
