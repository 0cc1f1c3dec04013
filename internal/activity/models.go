package activity

import (
	"time"

	"github.com/google/uuid"
)

// Action names the domain operation that produced an activity event.
type Action string

const (
	ActionAssetCreated     Action = "asset_created"
	ActionAssetUpdated     Action = "asset_updated"
	ActionAssetDeactivated Action = "asset_deactivated"
	ActionIssueReported    Action = "issue_reported"
	ActionIssueDeleted     Action = "issue_deleted"
	ActionRepairCreated    Action = "repair_created"
	ActionRepairCompleted  Action = "repair_completed"
	ActionRepairDeleted    Action = "repair_deleted"
	ActionShipmentReceived Action = "shipment_received"
	ActionAssetsConsumed   Action = "assets_consumed"
	ActionBorrowRequested  Action = "borrow_requested"
	ActionBorrowReturned   Action = "borrow_returned"
)

// Event is one append-only audit trail entry for a field-level change on an
// asset. Keep it transport-agnostic so the store and the Kafka sink can both
// consume it.
type Event struct {
	ID         uuid.UUID `json:"id"`
	AssetID    uuid.UUID `json:"asset_id"`
	Action     Action    `json:"action"`
	Field      string    `json:"field,omitempty"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	ModifiedBy string    `json:"modified_by,omitempty"`
	UserName   string    `json:"user_name,omitempty"`
	Context    string    `json:"context,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
