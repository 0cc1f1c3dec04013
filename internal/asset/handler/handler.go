package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockroom/internal/asset/models"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/httputil"
)

// AssetService is the application layer the HTTP handlers delegate to.
type AssetService interface {
	CreateAsset(ctx context.Context, name, productCode, serialNumber string, unitCost decimal.Decimal, quantity int) (*models.Asset, error)
	GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	ListAssets(ctx context.Context) ([]*models.Asset, error)
	UpdateAsset(ctx context.Context, id uuid.UUID, update models.Update) (*models.Asset, error)
	DeactivateAsset(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	service AssetService
}

func NewHandler(service AssetService) *Handler {
	return &Handler{service: service}
}

type createAssetRequest struct {
	Name         string `json:"name"`
	ProductCode  string `json:"product_code"`
	SerialNumber string `json:"serial_number"`
	UnitCost     string `json:"unit_cost"`
	Quantity     int    `json:"quantity"`
}

type updateAssetRequest struct {
	Name         string `json:"name"`
	ProductCode  string `json:"product_code"`
	SerialNumber string `json:"serial_number"`
	UnitCost     string `json:"unit_cost"`
}

type assetResponse struct {
	ID               uuid.UUID `json:"asset_id"`
	Name             string    `json:"name"`
	ProductCode      string    `json:"product_code"`
	SerialNumber     string    `json:"serial_number"`
	UnitCost         string    `json:"unit_cost"`
	Quantity         int       `json:"quantity"`
	BorrowedQuantity int       `json:"borrowed_quantity"`
	Active           bool      `json:"active"`
	HasIssue         bool      `json:"has_issue"`
	UnderRepair      bool      `json:"under_repair"`
	AddedBy          string    `json:"added_by"`
	UserName         string    `json:"user_name"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toAssetResponse(asset *models.Asset) assetResponse {
	return assetResponse{
		ID:               asset.ID,
		Name:             asset.Name,
		ProductCode:      asset.ProductCode,
		SerialNumber:     asset.SerialNumber,
		UnitCost:         asset.UnitCost.String(),
		Quantity:         asset.Quantity,
		BorrowedQuantity: asset.BorrowedQuantity,
		Active:           asset.Active,
		HasIssue:         asset.HasIssue,
		UnderRepair:      asset.UnderRepair,
		AddedBy:          asset.AddedBy,
		UserName:         asset.UserName,
		CreatedAt:        asset.CreatedAt,
		UpdatedAt:        asset.UpdatedAt,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	unitCost, err := parseUnitCost(req.UnitCost)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	asset, err := h.service.CreateAsset(r.Context(), req.Name, req.ProductCode, req.SerialNumber, unitCost, req.Quantity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAssetResponse(asset))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := assetID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	asset, err := h.service.GetAsset(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssetResponse(asset))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	assets, err := h.service.ListAssets(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]assetResponse, 0, len(assets))
	for _, asset := range assets {
		out = append(out, toAssetResponse(asset))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"assets": out})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := assetID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	unitCost, err := parseUnitCost(req.UnitCost)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	asset, err := h.service.UpdateAsset(r.Context(), id, models.Update{
		Name:         req.Name,
		ProductCode:  req.ProductCode,
		SerialNumber: req.SerialNumber,
		UnitCost:     unitCost,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssetResponse(asset))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := assetID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeactivateAsset(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func assetID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "assetID"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid asset id")
	}
	return id, nil
}

func parseUnitCost(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	unitCost, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, dErrors.New(dErrors.CodeBadRequest, "invalid unit_cost")
	}
	return unitCost, nil
}
