package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/activity"
	"stockroom/internal/asset/models"
	assetstore "stockroom/internal/asset/store"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/requestcontext"
)

type captureRecorder struct {
	events []activity.Event
}

func (r *captureRecorder) Record(ctx context.Context, event activity.Event) {
	r.events = append(r.events, event)
}

func newFixture(t *testing.T) (*Service, *assetstore.InMemory, *captureRecorder, context.Context) {
	t.Helper()
	store := assetstore.NewInMemory()
	recorder := &captureRecorder{}
	svc := NewService(store, WithRecorder(recorder))

	ctx := requestcontext.WithActor(context.Background(), requestcontext.ActorInfo{ID: "user-1", Name: "Dana"})
	return svc, store, recorder, ctx
}

func TestCreateAssetStampsActor(t *testing.T) {
	svc, _, recorder, ctx := newFixture(t)

	asset, err := svc.CreateAsset(ctx, "  Laptop  ", "PC-100", "SN-1", decimal.NewFromInt(1200), 5)
	require.NoError(t, err)

	assert.Equal(t, "Laptop", asset.Name)
	assert.Equal(t, "user-1", asset.AddedBy)
	assert.Equal(t, "Dana", asset.UserName)
	assert.True(t, asset.Active)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, activity.ActionAssetCreated, recorder.events[0].Action)
}

func TestCreateAssetValidation(t *testing.T) {
	svc, _, _, ctx := newFixture(t)

	_, err := svc.CreateAsset(ctx, "", "", "", decimal.Zero, 1)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInvariantViolation, dErrors.CodeOf(err))

	_, err = svc.CreateAsset(ctx, "Laptop", "", "", decimal.Zero, -1)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInvariantViolation, dErrors.CodeOf(err))

	_, err = svc.CreateAsset(ctx, "Laptop", "", "", decimal.NewFromInt(-5), 1)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInvariantViolation, dErrors.CodeOf(err))
}

func TestCreateAssetSerialConflict(t *testing.T) {
	svc, _, _, ctx := newFixture(t)

	_, err := svc.CreateAsset(ctx, "Laptop", "PC-100", "SN-1", decimal.Zero, 1)
	require.NoError(t, err)

	_, err = svc.CreateAsset(ctx, "Laptop 2", "PC-101", "SN-1", decimal.Zero, 1)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}

func TestUpdateAssetEmitsFieldLevelEvents(t *testing.T) {
	svc, _, recorder, ctx := newFixture(t)

	asset, err := svc.CreateAsset(ctx, "Laptop", "PC-100", "SN-1", decimal.NewFromInt(1200), 5)
	require.NoError(t, err)
	recorder.events = nil

	updated, err := svc.UpdateAsset(ctx, asset.ID, models.Update{
		Name:         "Laptop Pro",
		ProductCode:  "PC-100",
		SerialNumber: "SN-1",
		UnitCost:     decimal.NewFromInt(1500),
	})
	require.NoError(t, err)
	assert.Equal(t, "Laptop Pro", updated.Name)

	// One event per changed field, none for unchanged fields.
	require.Len(t, recorder.events, 2)
	fields := map[string]activity.Event{}
	for _, e := range recorder.events {
		assert.Equal(t, activity.ActionAssetUpdated, e.Action)
		fields[e.Field] = e
	}
	assert.Equal(t, "Laptop", fields["name"].OldValue)
	assert.Equal(t, "Laptop Pro", fields["name"].NewValue)
	assert.Equal(t, "1200", fields["unit_cost"].OldValue)
	assert.Equal(t, "1500", fields["unit_cost"].NewValue)
}

func TestUpdateAssetUnknownID(t *testing.T) {
	svc, _, _, ctx := newFixture(t)

	_, err := svc.UpdateAsset(ctx, uuid.New(), models.Update{Name: "X"})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestDeactivateAsset(t *testing.T) {
	svc, store, recorder, ctx := newFixture(t)

	asset, err := svc.CreateAsset(ctx, "Laptop", "PC-100", "SN-1", decimal.Zero, 1)
	require.NoError(t, err)
	recorder.events = nil

	require.NoError(t, svc.DeactivateAsset(ctx, asset.ID))

	found, err := store.FindByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, activity.ActionAssetDeactivated, recorder.events[0].Action)
}
