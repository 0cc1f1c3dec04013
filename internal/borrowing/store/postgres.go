package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"stockroom/internal/borrowing/models"
	"stockroom/pkg/platform/sentinel"
	txcontext "stockroom/pkg/platform/tx"
)

const borrowingColumns = `request_id, asset_id, quantity, borrower, purpose, status, requested_by, user_name, created_at, updated_at, returned_at`

// Postgres persists borrowing requests.
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

func (s *Postgres) Create(ctx context.Context, request *models.BorrowingRequest) error {
	query := `
		INSERT INTO borrowing_requests (` + borrowingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		request.ID,
		request.AssetID,
		request.Quantity,
		request.Borrower,
		request.Purpose,
		string(request.Status),
		request.RequestedBy,
		request.UserName,
		request.CreatedAt,
		request.UpdatedAt,
		request.ReturnedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert borrowing request: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.BorrowingRequest, error) {
	query := `SELECT ` + borrowingColumns + ` FROM borrowing_requests WHERE request_id = $1`
	request, err := scanRequest(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find borrowing request: %w", err)
	}
	return request, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.BorrowingRequest, error) {
	query := `SELECT ` + borrowingColumns + ` FROM borrowing_requests ORDER BY created_at DESC, request_id`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list borrowing requests: %w", err)
	}
	defer rows.Close()

	var out []*models.BorrowingRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan borrowing request: %w", err)
		}
		out = append(out, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list borrowing requests: %w", err)
	}
	return out, nil
}

// Return transitions an active request to Returned in a single conditional
// update, so a request returns at most once.
func (s *Postgres) Return(ctx context.Context, id uuid.UUID, now time.Time) (*models.BorrowingRequest, error) {
	query := `
		UPDATE borrowing_requests
		SET status = $2, returned_at = $3, updated_at = $3
		WHERE request_id = $1 AND status = $4
		RETURNING ` + borrowingColumns
	request, err := scanRequest(s.execer(ctx).QueryRowContext(ctx, query, id, string(models.StatusReturned), now, string(models.StatusActive)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.classifyMiss(ctx, id)
		}
		return nil, fmt.Errorf("return borrowing request: %w", err)
	}
	return request, nil
}

func (s *Postgres) classifyMiss(ctx context.Context, id uuid.UUID) error {
	var status string
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT status FROM borrowing_requests WHERE request_id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify borrowing miss: %w", err)
	}
	return sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.BorrowingRequest, error) {
	var request models.BorrowingRequest
	var status string
	if err := row.Scan(
		&request.ID,
		&request.AssetID,
		&request.Quantity,
		&request.Borrower,
		&request.Purpose,
		&status,
		&request.RequestedBy,
		&request.UserName,
		&request.CreatedAt,
		&request.UpdatedAt,
		&request.ReturnedAt,
	); err != nil {
		return nil, err
	}
	request.Status = models.Status(status)
	return &request, nil
}
