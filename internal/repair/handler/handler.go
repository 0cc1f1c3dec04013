package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockroom/internal/repair/models"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/httputil"
)

type RepairService interface {
	CreateRepair(ctx context.Context, assetID uuid.UUID, issueID *uuid.UUID, description string, cost decimal.Decimal) (*models.RepairRecord, error)
	CompleteRepair(ctx context.Context, repairID uuid.UUID) (*models.RepairRecord, error)
	DeleteRepair(ctx context.Context, repairID uuid.UUID) error
	GetRepair(ctx context.Context, id uuid.UUID) (*models.RepairRecord, error)
	ListRepairs(ctx context.Context) ([]*models.RepairRecord, error)
	ListRepairsByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.RepairRecord, error)
	CreateMaintenance(ctx context.Context, assetID uuid.UUID, description string, performedAt time.Time) (*models.MaintenanceRecord, error)
	ListMaintenanceByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.MaintenanceRecord, error)
	DeleteMaintenance(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	service RepairService
}

func NewHandler(service RepairService) *Handler {
	return &Handler{service: service}
}

type createRepairRequest struct {
	AssetID     uuid.UUID  `json:"asset_id"`
	IssueID     *uuid.UUID `json:"issue_id,omitempty"`
	Description string     `json:"description"`
	Cost        string     `json:"cost"`
}

type repairResponse struct {
	ID          uuid.UUID  `json:"repair_id"`
	AssetID     uuid.UUID  `json:"asset_id"`
	IssueID     *uuid.UUID `json:"issue_id,omitempty"`
	Description string     `json:"description"`
	Cost        string     `json:"cost"`
	Status      string     `json:"status"`
	CreatedBy   string     `json:"created_by"`
	UserName    string     `json:"user_name"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toRepairResponse(repair *models.RepairRecord) repairResponse {
	return repairResponse{
		ID:          repair.ID,
		AssetID:     repair.AssetID,
		IssueID:     repair.IssueID,
		Description: repair.Description,
		Cost:        repair.Cost.String(),
		Status:      string(repair.Status),
		CreatedBy:   repair.CreatedBy,
		UserName:    repair.UserName,
		CreatedAt:   repair.CreatedAt,
		UpdatedAt:   repair.UpdatedAt,
		CompletedAt: repair.CompletedAt,
	}
}

type maintenanceResponse struct {
	ID          uuid.UUID `json:"maintenance_id"`
	AssetID     uuid.UUID `json:"asset_id"`
	Description string    `json:"description"`
	PerformedBy string    `json:"performed_by"`
	UserName    string    `json:"user_name"`
	PerformedAt time.Time `json:"performed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func toMaintenanceResponse(record *models.MaintenanceRecord) maintenanceResponse {
	return maintenanceResponse{
		ID:          record.ID,
		AssetID:     record.AssetID,
		Description: record.Description,
		PerformedBy: record.PerformedBy,
		UserName:    record.UserName,
		PerformedAt: record.PerformedAt,
		CreatedAt:   record.CreatedAt,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRepairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.AssetID == uuid.Nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "asset_id is required"))
		return
	}

	cost := decimal.Zero
	if req.Cost != "" {
		parsed, err := decimal.NewFromString(req.Cost)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid cost"))
			return
		}
		cost = parsed
	}

	repair, err := h.service.CreateRepair(r.Context(), req.AssetID, req.IssueID, req.Description, cost)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRepairResponse(repair))
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := repairID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	repair, err := h.service.CompleteRepair(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRepairResponse(repair))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := repairID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteRepair(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := repairID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	repair, err := h.service.GetRepair(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRepairResponse(repair))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		repairs []*models.RepairRecord
		err     error
	)
	if raw := r.URL.Query().Get("asset_id"); raw != "" {
		assetID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid asset_id"))
			return
		}
		repairs, err = h.service.ListRepairsByAsset(r.Context(), assetID)
	} else {
		repairs, err = h.service.ListRepairs(r.Context())
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]repairResponse, 0, len(repairs))
	for _, repair := range repairs {
		out = append(out, toRepairResponse(repair))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"repairs": out})
}

type createMaintenanceRequest struct {
	AssetID     uuid.UUID `json:"asset_id"`
	Description string    `json:"description"`
	PerformedAt time.Time `json:"performed_at"`
}

func (h *Handler) CreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var req createMaintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.AssetID == uuid.Nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "asset_id is required"))
		return
	}

	record, err := h.service.CreateMaintenance(r.Context(), req.AssetID, req.Description, req.PerformedAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toMaintenanceResponse(record))
}

func (h *Handler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(r.URL.Query().Get("asset_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid asset_id"))
		return
	}

	records, err := h.service.ListMaintenanceByAsset(r.Context(), assetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]maintenanceResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toMaintenanceResponse(record))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"maintenance_records": out})
}

func (h *Handler) DeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "maintenanceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid maintenance id"))
		return
	}

	if err := h.service.DeleteMaintenance(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func repairID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "repairID"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid repair id")
	}
	return id, nil
}
