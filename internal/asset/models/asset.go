package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "stockroom/pkg/domain-errors"
)

// Asset is the aggregate root for a tracked inventory item.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Quantity >= 0 at all times
//   - Quantity is mutated only through domain operations that deduct
//     conditionally (quantity >= n checked in the same statement), never
//     through a plain field update
//   - BorrowedQuantity counts units moved out of Quantity by borrowing
//     requests and returned on release
//   - HasIssue / UnderRepair are derived flags: true while at least one open
//     issue / pending repair references the asset
//
// Deactivation is a soft delete: issue, repair, and shipment history stays
// attached to an inactive asset.
type Asset struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	ProductCode      string          `json:"product_code"`
	SerialNumber     string          `json:"serial_number"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Quantity         int             `json:"quantity"`
	BorrowedQuantity int             `json:"borrowed_quantity"`
	Active           bool            `json:"active"`
	HasIssue         bool            `json:"has_issue"`
	UnderRepair      bool            `json:"under_repair"`
	AddedBy          string          `json:"added_by"`
	UserName         string          `json:"user_name"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func NewAsset(id uuid.UUID, name, productCode, serialNumber string, unitCost decimal.Decimal, quantity int, addedBy, userName string, now time.Time) (*Asset, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset name must be 128 characters or less")
	}
	if quantity < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset quantity cannot be negative")
	}
	if unitCost.IsNegative() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset unit cost cannot be negative")
	}
	return &Asset{
		ID:           id,
		Name:         name,
		ProductCode:  productCode,
		SerialNumber: serialNumber,
		UnitCost:     unitCost,
		Quantity:     quantity,
		Active:       true,
		AddedBy:      addedBy,
		UserName:     userName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (a *Asset) IsActive() bool {
	return a.Active
}

// Update describes the mutable descriptive fields. Quantity and the derived
// flags are deliberately absent; they change only through domain operations.
type Update struct {
	Name         string          `json:"name"`
	ProductCode  string          `json:"product_code"`
	SerialNumber string          `json:"serial_number"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// CanApply validates an update against the asset invariants.
func (u Update) CanApply() error {
	if u.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "asset name cannot be empty")
	}
	if len(u.Name) > 128 {
		return dErrors.New(dErrors.CodeInvariantViolation, "asset name must be 128 characters or less")
	}
	if u.UnitCost.IsNegative() {
		return dErrors.New(dErrors.CodeInvariantViolation, "asset unit cost cannot be negative")
	}
	return nil
}

// Apply writes the update onto the asset. AddedBy/UserName keep the creator
// identity; modifier identity lands in the activity log instead. Call
// CanApply first.
func (a *Asset) Apply(u Update, now time.Time) {
	a.Name = u.Name
	a.ProductCode = u.ProductCode
	a.SerialNumber = u.SerialNumber
	a.UnitCost = u.UnitCost
	a.UpdatedAt = now
}
