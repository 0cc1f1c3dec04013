package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	assetmodels "stockroom/internal/asset/models"
	assetstore "stockroom/internal/asset/store"
	issuestore "stockroom/internal/issue/store"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/tx"
	"stockroom/pkg/requestcontext"
)

type fixture struct {
	service *Service
	assets  *assetstore.InMemory
	issues  *issuestore.InMemory
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	assets := assetstore.NewInMemory()
	issues := issuestore.NewInMemory()
	svc := NewService(tx.NewMemoryRunner(), assets, issues)

	ctx := requestcontext.WithActor(context.Background(), requestcontext.ActorInfo{
		ID:   "user-1",
		Name: "Dana",
	})
	return &fixture{service: svc, assets: assets, issues: issues, ctx: ctx}
}

func (f *fixture) seedAsset(t *testing.T, quantity int) *assetmodels.Asset {
	t.Helper()
	asset, err := assetmodels.NewAsset(uuid.New(), "Laptop", "PC-100", uuid.New().String(), decimal.NewFromInt(100), quantity, "user-1", "Dana", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.assets.Create(context.Background(), asset))
	return asset
}

func TestReportIssueDeductsAndCreatesPendingIssue(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 10)

	issue, updated, err := f.service.ReportIssue(f.ctx, asset.ID, "damaged", "screen cracked", "high", 4)
	require.NoError(t, err)

	require.Equal(t, 4, issue.IssueQuantity)
	require.Equal(t, "Pending", string(issue.Status))
	require.Equal(t, "High", issue.Priority)
	require.Equal(t, "user-1", issue.ReportedBy)

	require.Equal(t, 6, updated.Quantity)
	require.True(t, updated.HasIssue)
}

func TestReportIssueRejectsInsufficientQuantityWithZeroMutation(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 3)

	_, _, err := f.service.ReportIssue(f.ctx, asset.ID, "damaged", "", "", 5)
	require.Error(t, err)
	require.Equal(t, dErrors.CodeInsufficientQuantity, dErrors.CodeOf(err))

	found, err := f.assets.FindByID(f.ctx, asset.ID)
	require.NoError(t, err)
	require.Equal(t, 3, found.Quantity)
	require.False(t, found.HasIssue)

	issues, err := f.issues.List(f.ctx)
	require.NoError(t, err)
	require.Empty(t, issues)
}

func TestReportIssueAllowsExactQuantity(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 5)

	_, updated, err := f.service.ReportIssue(f.ctx, asset.ID, "defective", "", "", 5)
	require.NoError(t, err)
	require.Equal(t, 0, updated.Quantity)
	require.True(t, updated.HasIssue)
}

func TestReportIssueValidation(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 5)

	tests := []struct {
		name      string
		issueType string
		quantity  int
	}{
		{"missing issue type", "", 1},
		{"zero quantity", "damaged", 0},
		{"negative quantity", "damaged", -2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.service.ReportIssue(f.ctx, asset.ID, tc.issueType, "", "", tc.quantity)
			require.Error(t, err)
			require.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
		})
	}
}

func TestReportIssueUnknownAsset(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.service.ReportIssue(f.ctx, uuid.New(), "damaged", "", "", 1)
	require.Error(t, err)
	require.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestDeleteIssueRestoresQuantity(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 10)

	issue, updated, err := f.service.ReportIssue(f.ctx, asset.ID, "damaged", "", "", 6)
	require.NoError(t, err)
	require.Equal(t, 4, updated.Quantity)

	restored, err := f.service.DeleteIssue(f.ctx, issue.ID)
	require.NoError(t, err)
	require.Equal(t, 10, restored.Quantity)
	require.False(t, restored.HasIssue)

	_, err = f.issues.FindByID(f.ctx, issue.ID)
	require.Error(t, err)
}

func TestDeleteIssueKeepsHasIssueWhileOthersRemain(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 10)

	first, _, err := f.service.ReportIssue(f.ctx, asset.ID, "damaged", "", "", 2)
	require.NoError(t, err)
	_, _, err = f.service.ReportIssue(f.ctx, asset.ID, "defective", "", "", 3)
	require.NoError(t, err)

	restored, err := f.service.DeleteIssue(f.ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, 7, restored.Quantity)
	require.True(t, restored.HasIssue)
}

func TestDeleteIssueUnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.DeleteIssue(f.ctx, uuid.New())
	require.Error(t, err)
	require.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestReportThenDeleteRoundTripPreservesTotal(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 10)

	issue, _, err := f.service.ReportIssue(f.ctx, asset.ID, "damaged", "", "", 4)
	require.NoError(t, err)

	restored, err := f.service.DeleteIssue(f.ctx, issue.ID)
	require.NoError(t, err)
	require.Equal(t, 10, restored.Quantity)
}
