package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: row does not exist in the store
// - ErrConflict: write collided with an existing row
// - ErrInsufficientQuantity: conditional stock deduction matched no row
// - ErrInvalidState: record in wrong state for the requested transition
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInvalidState         = errors.New("invalid state")
	ErrUnavailable          = errors.New("unavailable")
)
