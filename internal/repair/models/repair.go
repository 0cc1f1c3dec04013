package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "stockroom/pkg/domain-errors"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

// RepairRecord tracks a repair job for an asset. Completed is terminal; a
// record completes at most once and is never reopened.
type RepairRecord struct {
	ID          uuid.UUID
	AssetID     uuid.UUID
	IssueID     *uuid.UUID
	Description string
	Cost        decimal.Decimal
	Status      Status
	CreatedBy   string
	UserName    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

func NewRepairRecord(id, assetID uuid.UUID, issueID *uuid.UUID, description string, cost decimal.Decimal, createdBy, userName string, now time.Time) (*RepairRecord, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "description is required")
	}
	if cost.IsNegative() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cost must be non-negative")
	}

	return &RepairRecord{
		ID:          id,
		AssetID:     assetID,
		IssueID:     issueID,
		Description: description,
		Cost:        cost,
		Status:      StatusPending,
		CreatedBy:   createdBy,
		UserName:    userName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *RepairRecord) CanComplete() error {
	if r.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeConflict, "repair record already completed")
	}
	return nil
}

func (r *RepairRecord) ApplyCompletion(now time.Time) {
	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MaintenanceRecord is a plain log entry of routine upkeep. It has no
// lifecycle and no effect on stock.
type MaintenanceRecord struct {
	ID          uuid.UUID
	AssetID     uuid.UUID
	Description string
	PerformedBy string
	UserName    string
	PerformedAt time.Time
	CreatedAt   time.Time
}

func NewMaintenanceRecord(id, assetID uuid.UUID, description string, performedBy, userName string, performedAt, now time.Time) (*MaintenanceRecord, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "description is required")
	}
	if performedAt.IsZero() {
		performedAt = now
	}

	return &MaintenanceRecord{
		ID:          id,
		AssetID:     assetID,
		Description: description,
		PerformedBy: performedBy,
		UserName:    userName,
		PerformedAt: performedAt,
		CreatedAt:   now,
	}, nil
}
