package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"stockroom/internal/issue/models"
	"stockroom/pkg/platform/sentinel"
	txcontext "stockroom/pkg/platform/tx"
)

const issueColumns = `issue_id, asset_id, issue_type, description, priority, issue_quantity, status, reported_by, user_name, created_at, updated_at`

// Postgres persists asset issues. All methods run against the transaction
// carried in the context when one is present, so the issue insert and the
// asset deduct commit or roll back together.
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

func (s *Postgres) Create(ctx context.Context, issue *models.AssetIssue) error {
	query := `
		INSERT INTO asset_issues (` + issueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		issue.ID,
		issue.AssetID,
		issue.IssueType,
		issue.Description,
		issue.Priority,
		issue.IssueQuantity,
		string(issue.Status),
		issue.ReportedBy,
		issue.UserName,
		issue.CreatedAt,
		issue.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert asset issue: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.AssetIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM asset_issues WHERE issue_id = $1`
	issue, err := scanIssue(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find asset issue: %w", err)
	}
	return issue, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.AssetIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM asset_issues ORDER BY created_at DESC, issue_id`
	return s.queryIssues(ctx, query)
}

func (s *Postgres) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.AssetIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM asset_issues WHERE asset_id = $1 ORDER BY created_at DESC, issue_id`
	return s.queryIssues(ctx, query, assetID)
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM asset_issues WHERE issue_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete asset issue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete asset issue: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) CountOpenByAsset(ctx context.Context, assetID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM asset_issues WHERE asset_id = $1 AND status = $2`
	var count int
	if err := s.execer(ctx).QueryRowContext(ctx, query, assetID, string(models.StatusPending)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open issues: %w", err)
	}
	return count, nil
}

func (s *Postgres) queryIssues(ctx context.Context, query string, args ...any) ([]*models.AssetIssue, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query asset issues: %w", err)
	}
	defer rows.Close()

	var out []*models.AssetIssue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset issue: %w", err)
		}
		out = append(out, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query asset issues: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*models.AssetIssue, error) {
	var issue models.AssetIssue
	var status string
	if err := row.Scan(
		&issue.ID,
		&issue.AssetID,
		&issue.IssueType,
		&issue.Description,
		&issue.Priority,
		&issue.IssueQuantity,
		&status,
		&issue.ReportedBy,
		&issue.UserName,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	issue.Status = models.Status(status)
	return &issue, nil
}
