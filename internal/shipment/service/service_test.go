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
	shipmentstore "stockroom/internal/shipment/store"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/tx"
	"stockroom/pkg/requestcontext"
)

type fixture struct {
	service   *Service
	assets    *assetstore.InMemory
	shipments *shipmentstore.InMemory
	ctx       context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	assets := assetstore.NewInMemory()
	shipments := shipmentstore.NewInMemory()
	svc := NewService(tx.NewMemoryRunner(), assets, shipments)

	ctx := requestcontext.WithActor(context.Background(), requestcontext.ActorInfo{
		ID:   "user-1",
		Name: "Dana",
	})
	return &fixture{service: svc, assets: assets, shipments: shipments, ctx: ctx}
}

func (f *fixture) seedAsset(t *testing.T, quantity int) *assetmodels.Asset {
	t.Helper()
	asset, err := assetmodels.NewAsset(uuid.New(), "Cable", "PC-400", uuid.New().String(), decimal.NewFromInt(5), quantity, "user-1", "Dana", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.assets.Create(context.Background(), asset))
	return asset
}

func TestRecordIncomingIncrementsQuantity(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 2)

	shipment, updated, err := f.service.RecordIncoming(f.ctx, asset.ID, 10, decimal.NewFromFloat(4.5), "Acme Supplies", "PO-1001")
	require.NoError(t, err)
	require.Equal(t, 10, shipment.Quantity)
	require.Equal(t, "Acme Supplies", shipment.Supplier)
	require.Equal(t, 12, updated.Quantity)

	shipments, err := f.service.ListIncoming(f.ctx)
	require.NoError(t, err)
	require.Len(t, shipments, 1)
}

func TestRecordIncomingValidation(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 2)

	_, _, err := f.service.RecordIncoming(f.ctx, asset.ID, 0, decimal.Zero, "", "")
	require.Error(t, err)
	require.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

	_, _, err = f.service.RecordIncoming(f.ctx, asset.ID, 1, decimal.NewFromInt(-1), "", "")
	require.Error(t, err)
	require.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestRecordIncomingUnknownAsset(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.service.RecordIncoming(f.ctx, uuid.New(), 1, decimal.Zero, "", "")
	require.Error(t, err)
	require.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestRecordOutgoingDeductsQuantity(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 10)

	outgoing, updated, err := f.service.RecordOutgoing(f.ctx, asset.ID, 4, "Lab B", "project build")
	require.NoError(t, err)
	require.Equal(t, "Consumed", string(outgoing.Status))
	require.Equal(t, 6, updated.Quantity)
}

func TestRecordOutgoingRejectsOverdrawWithZeroMutation(t *testing.T) {
	f := newFixture(t)
	asset := f.seedAsset(t, 3)

	_, _, err := f.service.RecordOutgoing(f.ctx, asset.ID, 5, "Lab B", "")
	require.Error(t, err)
	require.Equal(t, dErrors.CodeInsufficientQuantity, dErrors.CodeOf(err))

	found, err := f.assets.FindByID(f.ctx, asset.ID)
	require.NoError(t, err)
	require.Equal(t, 3, found.Quantity)

	outgoing, err := f.service.ListOutgoing(f.ctx)
	require.NoError(t, err)
	require.Empty(t, outgoing)
}
