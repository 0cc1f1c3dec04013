package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	assetmodels "stockroom/internal/asset/models"
	"stockroom/internal/borrowing/models"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/httputil"
)

type BorrowingService interface {
	Borrow(ctx context.Context, assetID uuid.UUID, quantity int, borrower, purpose string) (*models.BorrowingRequest, *assetmodels.Asset, error)
	Return(ctx context.Context, requestID uuid.UUID) (*models.BorrowingRequest, *assetmodels.Asset, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*models.BorrowingRequest, error)
	ListRequests(ctx context.Context) ([]*models.BorrowingRequest, error)
}

type Handler struct {
	service BorrowingService
}

func NewHandler(service BorrowingService) *Handler {
	return &Handler{service: service}
}

type borrowRequest struct {
	AssetID  uuid.UUID `json:"asset_id"`
	Quantity int       `json:"quantity"`
	Borrower string    `json:"borrower"`
	Purpose  string    `json:"purpose"`
}

type borrowingResponse struct {
	ID          uuid.UUID  `json:"request_id"`
	AssetID     uuid.UUID  `json:"asset_id"`
	Quantity    int        `json:"quantity"`
	Borrower    string     `json:"borrower"`
	Purpose     string     `json:"purpose"`
	Status      string     `json:"status"`
	RequestedBy string     `json:"requested_by"`
	UserName    string     `json:"user_name"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
}

func toBorrowingResponse(request *models.BorrowingRequest) borrowingResponse {
	return borrowingResponse{
		ID:          request.ID,
		AssetID:     request.AssetID,
		Quantity:    request.Quantity,
		Borrower:    request.Borrower,
		Purpose:     request.Purpose,
		Status:      string(request.Status),
		RequestedBy: request.RequestedBy,
		UserName:    request.UserName,
		CreatedAt:   request.CreatedAt,
		UpdatedAt:   request.UpdatedAt,
		ReturnedAt:  request.ReturnedAt,
	}
}

func (h *Handler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.AssetID == uuid.Nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "asset_id is required"))
		return
	}

	request, asset, err := h.service.Borrow(r.Context(), req.AssetID, req.Quantity, req.Borrower, req.Purpose)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"request":            toBorrowingResponse(request),
		"available_quantity": asset.Quantity,
		"borrowed_quantity":  asset.BorrowedQuantity,
	})
}

func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	request, asset, err := h.service.Return(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"request":            toBorrowingResponse(request),
		"available_quantity": asset.Quantity,
		"borrowed_quantity":  asset.BorrowedQuantity,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := requestID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	request, err := h.service.GetRequest(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBorrowingResponse(request))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListRequests(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]borrowingResponse, 0, len(requests))
	for _, request := range requests {
		out = append(out, toBorrowingResponse(request))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func requestID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid request id")
	}
	return id, nil
}
