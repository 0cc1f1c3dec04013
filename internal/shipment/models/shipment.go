package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "stockroom/pkg/domain-errors"
)

// IncomingShipment records stock arriving into the inventory. Receiving a
// shipment increments the asset's available quantity.
type IncomingShipment struct {
	ID         uuid.UUID
	AssetID    uuid.UUID
	Quantity   int
	UnitCost   decimal.Decimal
	Supplier   string
	Reference  string
	ReceivedBy string
	UserName   string
	ReceivedAt time.Time
	CreatedAt  time.Time
}

func NewIncomingShipment(id, assetID uuid.UUID, quantity int, unitCost decimal.Decimal, supplier, reference, receivedBy, userName string, now time.Time) (*IncomingShipment, error) {
	if quantity <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unit_cost must be non-negative")
	}

	return &IncomingShipment{
		ID:         id,
		AssetID:    assetID,
		Quantity:   quantity,
		UnitCost:   unitCost,
		Supplier:   strings.TrimSpace(supplier),
		Reference:  strings.TrimSpace(reference),
		ReceivedBy: receivedBy,
		UserName:   userName,
		ReceivedAt: now,
		CreatedAt:  now,
	}, nil
}

// OutgoingStatus is fixed at Consumed for now; the column exists so future
// statuses (returned, written off) do not need a migration.
type OutgoingStatus string

const StatusConsumed OutgoingStatus = "Consumed"

// OutgoingAsset records stock leaving the inventory for good.
type OutgoingAsset struct {
	ID          uuid.UUID
	AssetID     uuid.UUID
	Quantity    int
	Destination string
	Reason      string
	Status      OutgoingStatus
	IssuedBy    string
	UserName    string
	CreatedAt   time.Time
}

func NewOutgoingAsset(id, assetID uuid.UUID, quantity int, destination, reason, issuedBy, userName string, now time.Time) (*OutgoingAsset, error) {
	if quantity <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "quantity must be positive")
	}

	return &OutgoingAsset{
		ID:          id,
		AssetID:     assetID,
		Quantity:    quantity,
		Destination: strings.TrimSpace(destination),
		Reason:      strings.TrimSpace(reason),
		Status:      StatusConsumed,
		IssuedBy:    issuedBy,
		UserName:    userName,
		CreatedAt:   now,
	}, nil
}
