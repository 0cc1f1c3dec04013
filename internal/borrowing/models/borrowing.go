package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "stockroom/pkg/domain-errors"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusReturned Status = "Returned"
)

// BorrowingRequest tracks units temporarily checked out of the inventory.
// While Active, the units sit in the asset's borrowed_quantity; returning
// moves them back to available quantity.
type BorrowingRequest struct {
	ID          uuid.UUID
	AssetID     uuid.UUID
	Quantity    int
	Borrower    string
	Purpose     string
	Status      Status
	RequestedBy string
	UserName    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ReturnedAt  *time.Time
}

func NewBorrowingRequest(id, assetID uuid.UUID, quantity int, borrower, purpose, requestedBy, userName string, now time.Time) (*BorrowingRequest, error) {
	borrower = strings.TrimSpace(borrower)
	if borrower == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "borrower is required")
	}
	if quantity <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "quantity must be positive")
	}

	return &BorrowingRequest{
		ID:          id,
		AssetID:     assetID,
		Quantity:    quantity,
		Borrower:    borrower,
		Purpose:     strings.TrimSpace(purpose),
		Status:      StatusActive,
		RequestedBy: requestedBy,
		UserName:    userName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (b *BorrowingRequest) CanReturn() error {
	if b.Status == StatusReturned {
		return dErrors.New(dErrors.CodeConflict, "borrowing request already returned")
	}
	return nil
}

func (b *BorrowingRequest) ApplyReturn(now time.Time) {
	b.Status = StatusReturned
	b.ReturnedAt = &now
	b.UpdatedAt = now
}
