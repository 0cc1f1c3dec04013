package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stockroom/internal/asset/handler/mocks"
	"stockroom/internal/asset/models"
	dErrors "stockroom/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/asset-mocks.go -package=mocks AssetService

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockAssetService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockAssetService(ctrl)
	h := NewHandler(service)

	r := chi.NewRouter()
	r.Post("/api/assets", h.Create)
	r.Get("/api/assets", h.List)
	r.Get("/api/assets/{assetID}", h.Get)
	r.Put("/api/assets/{assetID}", h.Update)
	r.Delete("/api/assets/{assetID}", h.Deactivate)
	return r, service
}

func sampleAsset() *models.Asset {
	now := time.Now()
	return &models.Asset{
		ID:           uuid.New(),
		Name:         "Laptop",
		ProductCode:  "PC-100",
		SerialNumber: "SN-1",
		UnitCost:     decimal.NewFromInt(1200),
		Quantity:     5,
		Active:       true,
		AddedBy:      "user-1",
		UserName:     "Dana",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateAsset(t *testing.T) {
	router, service := newTestRouter(t)
	asset := sampleAsset()

	service.EXPECT().
		CreateAsset(gomock.Any(), "Laptop", "PC-100", "SN-1", gomock.Any(), 5).
		Return(asset, nil)

	body, _ := json.Marshal(map[string]any{
		"name":          "Laptop",
		"product_code":  "PC-100",
		"serial_number": "SN-1",
		"unit_cost":     "1200",
		"quantity":      5,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assets", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID       uuid.UUID `json:"asset_id"`
		UnitCost string    `json:"unit_cost"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, asset.ID, resp.ID)
	assert.Equal(t, "1200", resp.UnitCost)
}

func TestCreateAssetRejectsBadUnitCost(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(map[string]any{"name": "Laptop", "unit_cost": "not-a-number"})
	req := httptest.NewRequest(http.MethodPost, "/api/assets", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAssetNotFound(t *testing.T) {
	router, service := newTestRouter(t)
	id := uuid.New()

	service.EXPECT().
		GetAsset(gomock.Any(), id).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "asset not found"))

	req := httptest.NewRequest(http.MethodGet, "/api/assets/"+id.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAssetRejectsMalformedID(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/assets/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAssetConflict(t *testing.T) {
	router, service := newTestRouter(t)
	id := uuid.New()

	service.EXPECT().
		UpdateAsset(gomock.Any(), id, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "serial number already in use"))

	body, _ := json.Marshal(map[string]any{"name": "Laptop", "serial_number": "SN-1"})
	req := httptest.NewRequest(http.MethodPut, "/api/assets/"+id.String(), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListAssets(t *testing.T) {
	router, service := newTestRouter(t)

	service.EXPECT().
		ListAssets(gomock.Any()).
		Return([]*models.Asset{sampleAsset(), sampleAsset()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/assets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Assets []json.RawMessage `json:"assets"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Assets, 2)
}

func TestDeactivateAsset(t *testing.T) {
	router, service := newTestRouter(t)
	id := uuid.New()

	service.EXPECT().DeactivateAsset(gomock.Any(), id).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/assets/"+id.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
