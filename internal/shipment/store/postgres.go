package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"stockroom/internal/shipment/models"
	"stockroom/pkg/platform/sentinel"
	txcontext "stockroom/pkg/platform/tx"
)

// Postgres persists incoming shipment and outgoing asset records.
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

func (s *Postgres) CreateIncoming(ctx context.Context, shipment *models.IncomingShipment) error {
	query := `
		INSERT INTO incoming_shipments
			(shipment_id, asset_id, quantity, unit_cost, supplier, reference, received_by, user_name, received_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		shipment.ID,
		shipment.AssetID,
		shipment.Quantity,
		shipment.UnitCost,
		shipment.Supplier,
		shipment.Reference,
		shipment.ReceivedBy,
		shipment.UserName,
		shipment.ReceivedAt,
		shipment.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert incoming shipment: %w", err)
	}
	return nil
}

func (s *Postgres) ListIncoming(ctx context.Context) ([]*models.IncomingShipment, error) {
	query := `
		SELECT shipment_id, asset_id, quantity, unit_cost, supplier, reference, received_by, user_name, received_at, created_at
		FROM incoming_shipments
		ORDER BY created_at DESC, shipment_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list incoming shipments: %w", err)
	}
	defer rows.Close()

	var out []*models.IncomingShipment
	for rows.Next() {
		var shipment models.IncomingShipment
		if err := rows.Scan(
			&shipment.ID,
			&shipment.AssetID,
			&shipment.Quantity,
			&shipment.UnitCost,
			&shipment.Supplier,
			&shipment.Reference,
			&shipment.ReceivedBy,
			&shipment.UserName,
			&shipment.ReceivedAt,
			&shipment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan incoming shipment: %w", err)
		}
		out = append(out, &shipment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list incoming shipments: %w", err)
	}
	return out, nil
}

func (s *Postgres) CreateOutgoing(ctx context.Context, outgoing *models.OutgoingAsset) error {
	query := `
		INSERT INTO outgoing_assets
			(outgoing_id, asset_id, quantity, destination, reason, status, issued_by, user_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		outgoing.ID,
		outgoing.AssetID,
		outgoing.Quantity,
		outgoing.Destination,
		outgoing.Reason,
		string(outgoing.Status),
		outgoing.IssuedBy,
		outgoing.UserName,
		outgoing.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert outgoing asset: %w", err)
	}
	return nil
}

func (s *Postgres) ListOutgoing(ctx context.Context) ([]*models.OutgoingAsset, error) {
	query := `
		SELECT outgoing_id, asset_id, quantity, destination, reason, status, issued_by, user_name, created_at
		FROM outgoing_assets
		ORDER BY created_at DESC, outgoing_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list outgoing assets: %w", err)
	}
	defer rows.Close()

	var out []*models.OutgoingAsset
	for rows.Next() {
		var outgoing models.OutgoingAsset
		var status string
		if err := rows.Scan(
			&outgoing.ID,
			&outgoing.AssetID,
			&outgoing.Quantity,
			&outgoing.Destination,
			&outgoing.Reason,
			&status,
			&outgoing.IssuedBy,
			&outgoing.UserName,
			&outgoing.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outgoing asset: %w", err)
		}
		outgoing.Status = models.OutgoingStatus(status)
		out = append(out, &outgoing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list outgoing assets: %w", err)
	}
	return out, nil
}
