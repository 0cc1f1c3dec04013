package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	assetmodels "stockroom/internal/asset/models"
	"stockroom/internal/shipment/models"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/httputil"
)

type ShipmentService interface {
	RecordIncoming(ctx context.Context, assetID uuid.UUID, quantity int, unitCost decimal.Decimal, supplier, reference string) (*models.IncomingShipment, *assetmodels.Asset, error)
	RecordOutgoing(ctx context.Context, assetID uuid.UUID, quantity int, destination, reason string) (*models.OutgoingAsset, *assetmodels.Asset, error)
	ListIncoming(ctx context.Context) ([]*models.IncomingShipment, error)
	ListOutgoing(ctx context.Context) ([]*models.OutgoingAsset, error)
}

type Handler struct {
	service ShipmentService
}

func NewHandler(service ShipmentService) *Handler {
	return &Handler{service: service}
}

type incomingRequest struct {
	AssetID   uuid.UUID `json:"asset_id"`
	Quantity  int       `json:"quantity"`
	UnitCost  string    `json:"unit_cost"`
	Supplier  string    `json:"supplier"`
	Reference string    `json:"reference"`
}

type incomingResponse struct {
	ID         uuid.UUID `json:"shipment_id"`
	AssetID    uuid.UUID `json:"asset_id"`
	Quantity   int       `json:"quantity"`
	UnitCost   string    `json:"unit_cost"`
	Supplier   string    `json:"supplier"`
	Reference  string    `json:"reference"`
	ReceivedBy string    `json:"received_by"`
	UserName   string    `json:"user_name"`
	ReceivedAt time.Time `json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func toIncomingResponse(shipment *models.IncomingShipment) incomingResponse {
	return incomingResponse{
		ID:         shipment.ID,
		AssetID:    shipment.AssetID,
		Quantity:   shipment.Quantity,
		UnitCost:   shipment.UnitCost.String(),
		Supplier:   shipment.Supplier,
		Reference:  shipment.Reference,
		ReceivedBy: shipment.ReceivedBy,
		UserName:   shipment.UserName,
		ReceivedAt: shipment.ReceivedAt,
		CreatedAt:  shipment.CreatedAt,
	}
}

type outgoingRequest struct {
	AssetID     uuid.UUID `json:"asset_id"`
	Quantity    int       `json:"quantity"`
	Destination string    `json:"destination"`
	Reason      string    `json:"reason"`
}

type outgoingResponse struct {
	ID          uuid.UUID `json:"outgoing_id"`
	AssetID     uuid.UUID `json:"asset_id"`
	Quantity    int       `json:"quantity"`
	Destination string    `json:"destination"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	IssuedBy    string    `json:"issued_by"`
	UserName    string    `json:"user_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func toOutgoingResponse(outgoing *models.OutgoingAsset) outgoingResponse {
	return outgoingResponse{
		ID:          outgoing.ID,
		AssetID:     outgoing.AssetID,
		Quantity:    outgoing.Quantity,
		Destination: outgoing.Destination,
		Reason:      outgoing.Reason,
		Status:      string(outgoing.Status),
		IssuedBy:    outgoing.IssuedBy,
		UserName:    outgoing.UserName,
		CreatedAt:   outgoing.CreatedAt,
	}
}

func (h *Handler) RecordIncoming(w http.ResponseWriter, r *http.Request) {
	var req incomingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.AssetID == uuid.Nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "asset_id is required"))
		return
	}

	unitCost := decimal.Zero
	if req.UnitCost != "" {
		parsed, err := decimal.NewFromString(req.UnitCost)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid unit_cost"))
			return
		}
		unitCost = parsed
	}

	shipment, asset, err := h.service.RecordIncoming(r.Context(), req.AssetID, req.Quantity, unitCost, req.Supplier, req.Reference)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"shipment":     toIncomingResponse(shipment),
		"new_quantity": asset.Quantity,
	})
}

func (h *Handler) RecordOutgoing(w http.ResponseWriter, r *http.Request) {
	var req outgoingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.AssetID == uuid.Nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "asset_id is required"))
		return
	}

	outgoing, asset, err := h.service.RecordOutgoing(r.Context(), req.AssetID, req.Quantity, req.Destination, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"outgoing":           toOutgoingResponse(outgoing),
		"remaining_quantity": asset.Quantity,
	})
}

func (h *Handler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.service.ListIncoming(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]incomingResponse, 0, len(shipments))
	for _, shipment := range shipments {
		out = append(out, toIncomingResponse(shipment))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"shipments": out})
}

func (h *Handler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	outgoing, err := h.service.ListOutgoing(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]outgoingResponse, 0, len(outgoing))
	for _, record := range outgoing {
		out = append(out, toOutgoingResponse(record))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"outgoing_assets": out})
}
