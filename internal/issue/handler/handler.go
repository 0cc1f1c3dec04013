package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	assetmodels "stockroom/internal/asset/models"
	"stockroom/internal/issue/models"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/httputil"
)

type IssueService interface {
	ReportIssue(ctx context.Context, assetID uuid.UUID, issueType, description, priority string, issueQuantity int) (*models.AssetIssue, *assetmodels.Asset, error)
	DeleteIssue(ctx context.Context, issueID uuid.UUID) (*assetmodels.Asset, error)
	GetIssue(ctx context.Context, id uuid.UUID) (*models.AssetIssue, error)
	ListIssues(ctx context.Context) ([]*models.AssetIssue, error)
	ListIssuesByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.AssetIssue, error)
}

type Handler struct {
	service IssueService
}

func NewHandler(service IssueService) *Handler {
	return &Handler{service: service}
}

type reportIssueRequest struct {
	AssetID       uuid.UUID `json:"asset_id"`
	IssueType     string    `json:"issue_type"`
	Description   string    `json:"description"`
	Priority      string    `json:"priority"`
	IssueQuantity int       `json:"issue_quantity"`
}

type issueResponse struct {
	ID            uuid.UUID `json:"issue_id"`
	AssetID       uuid.UUID `json:"asset_id"`
	IssueType     string    `json:"issue_type"`
	Description   string    `json:"description"`
	Priority      string    `json:"priority"`
	IssueQuantity int       `json:"issue_quantity"`
	Status        string    `json:"status"`
	ReportedBy    string    `json:"reported_by"`
	UserName      string    `json:"user_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
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

func toAssetResponse(asset *assetmodels.Asset) assetResponse {
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

func toIssueResponse(issue *models.AssetIssue) issueResponse {
	return issueResponse{
		ID:            issue.ID,
		AssetID:       issue.AssetID,
		IssueType:     issue.IssueType,
		Description:   issue.Description,
		Priority:      issue.Priority,
		IssueQuantity: issue.IssueQuantity,
		Status:        string(issue.Status),
		ReportedBy:    issue.ReportedBy,
		UserName:      issue.UserName,
		CreatedAt:     issue.CreatedAt,
		UpdatedAt:     issue.UpdatedAt,
	}
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req reportIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.AssetID == uuid.Nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "asset_id is required"))
		return
	}

	issue, asset, err := h.service.ReportIssue(r.Context(), req.AssetID, req.IssueType, req.Description, req.Priority, req.IssueQuantity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"issue":              toIssueResponse(issue),
		"asset":              toAssetResponse(asset),
		"remaining_quantity": asset.Quantity,
		"has_issue":          asset.HasIssue,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := issueID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	asset, err := h.service.DeleteIssue(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"restored_quantity": asset.Quantity,
		"has_issue":         asset.HasIssue,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := issueID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issue, err := h.service.GetIssue(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIssueResponse(issue))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		issues []*models.AssetIssue
		err    error
	)
	if raw := r.URL.Query().Get("asset_id"); raw != "" {
		assetID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid asset_id"))
			return
		}
		issues, err = h.service.ListIssuesByAsset(r.Context(), assetID)
	} else {
		issues, err = h.service.ListIssues(r.Context())
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]issueResponse, 0, len(issues))
	for _, issue := range issues {
		out = append(out, toIssueResponse(issue))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"issues": out})
}

func issueID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "issueID"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid issue id")
	}
	return id, nil
}
