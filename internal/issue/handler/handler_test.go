package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	assetmodels "stockroom/internal/asset/models"
	assetstore "stockroom/internal/asset/store"
	issueservice "stockroom/internal/issue/service"
	issuestore "stockroom/internal/issue/store"
	"stockroom/internal/platform/middleware"
	"stockroom/pkg/platform/tx"
)

const validToken = "good-token"

type stubValidator struct{}

func (stubValidator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	if tokenString != validToken {
		return nil, errors.New("invalid token")
	}
	return &middleware.JWTClaims{UserID: "user-1", UserName: "Dana"}, nil
}

type issueRouter struct {
	router http.Handler
	assets *assetstore.InMemory
}

func newIssueRouter(t *testing.T) *issueRouter {
	t.Helper()

	assets := assetstore.NewInMemory()
	issues := issuestore.NewInMemory()
	svc := issueservice.NewService(tx.NewMemoryRunner(), assets, issues)
	h := NewHandler(svc)

	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	r := chi.NewRouter()
	r.Get("/api/asset-issues", h.List)
	r.Get("/api/asset-issues/{issueID}", h.Get)
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(stubValidator{}, logger))
		authed.Post("/api/asset-issues", h.Report)
		authed.Delete("/api/asset-issues/{issueID}", h.Delete)
	})

	return &issueRouter{router: r, assets: assets}
}

func (ir *issueRouter) seedAsset(t *testing.T, quantity int) uuid.UUID {
	t.Helper()
	asset, err := assetmodels.NewAsset(uuid.New(), "Laptop", "PC-100", uuid.New().String(), decimal.NewFromInt(100), quantity, "user-1", "Dana", time.Now())
	if err != nil {
		t.Fatalf("failed to build asset: %v", err)
	}
	if err := ir.assets.Create(context.Background(), asset); err != nil {
		t.Fatalf("failed to seed asset: %v", err)
	}
	return asset.ID
}

func (ir *issueRouter) report(t *testing.T, assetID uuid.UUID, quantity int, token string) *httptest.ResponseRecorder {
	t.Helper()
	payload := map[string]any{
		"asset_id":       assetID,
		"issue_type":     "damaged",
		"description":    "screen cracked",
		"priority":       "high",
		"issue_quantity": quantity,
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/asset-issues", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ir.router.ServeHTTP(rec, req)
	return rec
}

func TestReportIssueRequiresAuth(t *testing.T) {
	ir := newIssueRouter(t)
	assetID := ir.seedAsset(t, 10)

	rec := ir.report(t, assetID, 2, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = ir.report(t, assetID, 2, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestReportIssueHappyPath(t *testing.T) {
	ir := newIssueRouter(t)
	assetID := ir.seedAsset(t, 10)

	rec := ir.report(t, assetID, 4, validToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Issue struct {
			ID            uuid.UUID `json:"issue_id"`
			IssueQuantity int       `json:"issue_quantity"`
			Status        string    `json:"status"`
			ReportedBy    string    `json:"reported_by"`
		} `json:"issue"`
		Asset struct {
			ID       uuid.UUID `json:"asset_id"`
			Name     string    `json:"name"`
			UnitCost string    `json:"unit_cost"`
			Quantity int       `json:"quantity"`
			HasIssue bool      `json:"has_issue"`
		} `json:"asset"`
		RemainingQuantity int  `json:"remaining_quantity"`
		HasIssue          bool `json:"has_issue"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Issue.IssueQuantity != 4 {
		t.Fatalf("expected issue_quantity 4, got %d", resp.Issue.IssueQuantity)
	}
	if resp.Issue.Status != "Pending" {
		t.Fatalf("expected Pending status, got %q", resp.Issue.Status)
	}
	if resp.Issue.ReportedBy != "user-1" {
		t.Fatalf("expected reporter from token, got %q", resp.Issue.ReportedBy)
	}
	if resp.Asset.ID != assetID {
		t.Fatalf("expected asset snapshot for %s, got %s", assetID, resp.Asset.ID)
	}
	if resp.Asset.Name != "Laptop" {
		t.Fatalf("expected asset name in snapshot, got %q", resp.Asset.Name)
	}
	if resp.Asset.UnitCost != "100" {
		t.Fatalf("expected unit_cost 100, got %q", resp.Asset.UnitCost)
	}
	if resp.Asset.Quantity != 6 || !resp.Asset.HasIssue {
		t.Fatalf("expected updated snapshot (quantity 6, has_issue), got quantity %d has_issue %v", resp.Asset.Quantity, resp.Asset.HasIssue)
	}
	if resp.RemainingQuantity != 6 {
		t.Fatalf("expected remaining 6, got %d", resp.RemainingQuantity)
	}
	if !resp.HasIssue {
		t.Fatalf("expected has_issue true")
	}
}

func TestReportIssueInsufficientQuantity(t *testing.T) {
	ir := newIssueRouter(t)
	assetID := ir.seedAsset(t, 3)

	rec := ir.report(t, assetID, 5, validToken)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for insufficient quantity, got %d", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != "insufficient_quantity" {
		t.Fatalf("expected insufficient_quantity code, got %q", resp.Error)
	}
}

func TestDeleteIssueRestoresQuantity(t *testing.T) {
	ir := newIssueRouter(t)
	assetID := ir.seedAsset(t, 10)

	rec := ir.report(t, assetID, 6, validToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created struct {
		Issue struct {
			ID uuid.UUID `json:"issue_id"`
		} `json:"issue"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/asset-issues/%s", created.Issue.ID), nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	delRec := httptest.NewRecorder()
	ir.router.ServeHTTP(delRec, req)
	if delRec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting issue, got %d: %s", delRec.Code, delRec.Body.String())
	}

	var resp struct {
		RestoredQuantity int  `json:"restored_quantity"`
		HasIssue         bool `json:"has_issue"`
	}
	if err := json.NewDecoder(delRec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.RestoredQuantity != 10 {
		t.Fatalf("expected restored 10, got %d", resp.RestoredQuantity)
	}
	if resp.HasIssue {
		t.Fatalf("expected has_issue false after last issue removed")
	}
}

func TestDeleteIssueUnknownID(t *testing.T) {
	ir := newIssueRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/asset-issues/"+uuid.New().String(), nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	rec := httptest.NewRecorder()
	ir.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListIssuesFiltersByAsset(t *testing.T) {
	ir := newIssueRouter(t)
	first := ir.seedAsset(t, 10)
	second := ir.seedAsset(t, 10)

	if rec := ir.report(t, first, 1, validToken); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := ir.report(t, second, 2, validToken); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/asset-issues?asset_id="+first.String(), nil)
	rec := httptest.NewRecorder()
	ir.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Issues []struct {
			AssetID uuid.UUID `json:"asset_id"`
		} `json:"issues"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Issues) != 1 {
		t.Fatalf("expected 1 issue for asset, got %d", len(resp.Issues))
	}
	if resp.Issues[0].AssetID != first {
		t.Fatalf("expected issue for first asset")
	}
}
