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
	repairstore "stockroom/internal/repair/store"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/tx"
	"stockroom/pkg/requestcontext"
)

type fixture struct {
	service *Service
	assets  *assetstore.InMemory
	repairs *repairstore.InMemory
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	assets := assetstore.NewInMemory()
	repairs := repairstore.NewInMemory()
	svc := NewService(tx.NewMemoryRunner(), assets, repairs)

	ctx := requestcontext.WithActor(context.Background(), requestcontext.ActorInfo{
		ID:   "user-1",
		Name: "Dana",
	})
	return &fixture{service: svc, assets: assets, repairs: repairs, ctx: ctx}
}

func (f *fixture) seedAsset(t *testing.T) *assetmodels.Asset {
	t.Helper()
	asset, err := assetmodels.NewAsset(uuid.New(), "Laptop", "PC-100", uuid.New().String(), decimal.NewFromInt(100), 5, "user-1", "Dana", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.assets.Create(context.Background(), asset))
	return asset
}

func TestCreateRepairFlagsAssetUnderRepair(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t)

	repair, err := f.service.CreateRepair(f.ctx, asset.ID, nil, "replace fan", decimal.NewFromInt(25))
	require.NoError(t, err)
	require.Equal(t, "Pending", string(repair.Status))
	require.Nil(t, repair.CompletedAt)

	found, err := f.assets.FindByID(f.ctx, asset.ID)
	require.NoError(t, err)
	require.True(t, found.UnderRepair)
}

func TestCreateRepairValidation(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t)

	_, err := f.service.CreateRepair(f.ctx, asset.ID, nil, "   ", decimal.Zero)
	require.Error(t, err)
	require.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

	_, err = f.service.CreateRepair(f.ctx, asset.ID, nil, "fix", decimal.NewFromInt(-1))
	require.Error(t, err)
	require.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestCompleteRepairIsTerminal(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t)

	repair, err := f.service.CreateRepair(f.ctx, asset.ID, nil, "replace fan", decimal.Zero)
	require.NoError(t, err)

	completed, err := f.service.CompleteRepair(f.ctx, repair.ID)
	require.NoError(t, err)
	require.Equal(t, "Completed", string(completed.Status))
	require.NotNil(t, completed.CompletedAt)

	// A completed record cannot complete again.
	_, err = f.service.CompleteRepair(f.ctx, repair.ID)
	require.Error(t, err)
	require.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}

func TestCompleteLastRepairClearsUnderRepair(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t)

	first, err := f.service.CreateRepair(f.ctx, asset.ID, nil, "replace fan", decimal.Zero)
	require.NoError(t, err)
	second, err := f.service.CreateRepair(f.ctx, asset.ID, nil, "replace keyboard", decimal.Zero)
	require.NoError(t, err)

	_, err = f.service.CompleteRepair(f.ctx, first.ID)
	require.NoError(t, err)

	found, err := f.assets.FindByID(f.ctx, asset.ID)
	require.NoError(t, err)
	require.True(t, found.UnderRepair, "one repair still pending")

	_, err = f.service.CompleteRepair(f.ctx, second.ID)
	require.NoError(t, err)

	found, err = f.assets.FindByID(f.ctx, asset.ID)
	require.NoError(t, err)
	require.False(t, found.UnderRepair)
}

func TestDeleteRepairRecomputesUnderRepair(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t)

	repair, err := f.service.CreateRepair(f.ctx, asset.ID, nil, "replace fan", decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteRepair(f.ctx, repair.ID))

	found, err := f.assets.FindByID(f.ctx, asset.ID)
	require.NoError(t, err)
	require.False(t, found.UnderRepair)

	_, err = f.repairs.FindByID(f.ctx, repair.ID)
	require.Error(t, err)
}

func TestCompleteRepairUnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CompleteRepair(f.ctx, uuid.New())
	require.Error(t, err)
	require.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestMaintenanceLifecycle(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t)

	record, err := f.service.CreateMaintenance(f.ctx, asset.ID, "dust cleanup", time.Time{})
	require.NoError(t, err)
	require.False(t, record.PerformedAt.IsZero())

	records, err := f.service.ListMaintenanceByAsset(f.ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, f.service.DeleteMaintenance(f.ctx, record.ID))

	records, err = f.service.ListMaintenanceByAsset(f.ctx, asset.ID)
	require.NoError(t, err)
	require.Empty(t, records)
}
