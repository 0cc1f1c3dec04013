package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stockroom/internal/activity"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/httputil"
)

type Handler struct {
	store activity.Store
}

func NewHandler(store activity.Store) *Handler {
	return &Handler{store: store}
}

type eventResponse struct {
	ID         uuid.UUID `json:"log_id"`
	AssetID    uuid.UUID `json:"asset_id"`
	Action     string    `json:"action"`
	Field      string    `json:"field_changed,omitempty"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	ModifiedBy string    `json:"modified_by"`
	UserName   string    `json:"user_name"`
	Context    string    `json:"context,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListByAsset returns the audit trail for one asset, newest first.
func (h *Handler) ListByAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid asset id"))
		return
	}

	events, err := h.store.ListByAsset(r.Context(), assetID.String())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list activity"))
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, eventResponse{
			ID:         event.ID,
			AssetID:    event.AssetID,
			Action:     string(event.Action),
			Field:      event.Field,
			OldValue:   event.OldValue,
			NewValue:   event.NewValue,
			ModifiedBy: event.ModifiedBy,
			UserName:   event.UserName,
			Context:    event.Context,
			CreatedAt:  event.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"activity": out})
}
