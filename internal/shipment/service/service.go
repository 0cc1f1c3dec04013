package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stockroom/internal/activity"
	assetmodels "stockroom/internal/asset/models"
	"stockroom/internal/shipment/models"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/sentinel"
	"stockroom/pkg/platform/tx"
	"stockroom/pkg/requestcontext"
)

// AssetStore is the slice of the asset store the shipment service needs.
type AssetStore interface {
	AddQuantity(ctx context.Context, id uuid.UUID, n int, now time.Time) (*assetmodels.Asset, error)
	DeductQuantity(ctx context.Context, id uuid.UUID, n int, now time.Time) (*assetmodels.Asset, error)
}

type ShipmentStore interface {
	CreateIncoming(ctx context.Context, shipment *models.IncomingShipment) error
	ListIncoming(ctx context.Context) ([]*models.IncomingShipment, error)
	CreateOutgoing(ctx context.Context, outgoing *models.OutgoingAsset) error
	ListOutgoing(ctx context.Context) ([]*models.OutgoingAsset, error)
}

// CacheInvalidator drops cached asset snapshots after quantity mutations.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

// Service records stock movement in and out of the inventory. Each movement
// pairs a ledger row with the asset quantity adjustment in one transaction.
type Service struct {
	runner    tx.Runner
	assets    AssetStore
	shipments ShipmentStore
	cache     CacheInvalidator
	recorder  activity.Recorder
	tracer    trace.Tracer
}

type Option func(*Service)

func WithCache(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

func WithRecorder(r activity.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(runner tx.Runner, assets AssetStore, shipments ShipmentStore, opts ...Option) *Service {
	s := &Service{
		runner:    runner,
		assets:    assets,
		shipments: shipments,
		recorder:  activity.NopRecorder{},
		tracer:    otel.Tracer("stockroom/shipment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordIncoming logs a received shipment and adds its quantity to the
// asset's available stock.
func (s *Service) RecordIncoming(ctx context.Context, assetID uuid.UUID, quantity int, unitCost decimal.Decimal, supplier, reference string) (*models.IncomingShipment, *assetmodels.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "shipment.RecordIncoming", trace.WithAttributes(
		attribute.String("asset.id", assetID.String()),
		attribute.Int("shipment.quantity", quantity),
	))
	defer span.End()

	actor := requestcontext.Actor(ctx)
	shipment, err := models.NewIncomingShipment(uuid.New(), assetID, quantity, unitCost, supplier, reference, actor.ID, actor.Name, requestcontext.Now(ctx))
	if err != nil {
		return nil, nil, err
	}

	var asset *assetmodels.Asset
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		asset, err = s.assets.AddQuantity(ctx, assetID, quantity, shipment.CreatedAt)
		if err != nil {
			return err
		}
		return s.shipments.CreateIncoming(ctx, shipment)
	})
	if err != nil {
		return nil, nil, wrapShipmentErr(err)
	}

	s.invalidate(ctx, assetID)
	s.recorder.Record(ctx, activity.Event{
		AssetID:  assetID,
		Action:   activity.ActionShipmentReceived,
		Field:    "quantity",
		OldValue: strconv.Itoa(asset.Quantity - quantity),
		NewValue: strconv.Itoa(asset.Quantity),
	})
	return shipment, asset, nil
}

// RecordOutgoing logs consumed stock and deducts it from the asset. The
// deduct is conditional; short stock rejects the whole operation.
func (s *Service) RecordOutgoing(ctx context.Context, assetID uuid.UUID, quantity int, destination, reason string) (*models.OutgoingAsset, *assetmodels.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "shipment.RecordOutgoing", trace.WithAttributes(
		attribute.String("asset.id", assetID.String()),
		attribute.Int("outgoing.quantity", quantity),
	))
	defer span.End()

	actor := requestcontext.Actor(ctx)
	outgoing, err := models.NewOutgoingAsset(uuid.New(), assetID, quantity, destination, reason, actor.ID, actor.Name, requestcontext.Now(ctx))
	if err != nil {
		return nil, nil, err
	}

	var asset *assetmodels.Asset
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		asset, err = s.assets.DeductQuantity(ctx, assetID, quantity, outgoing.CreatedAt)
		if err != nil {
			return err
		}
		return s.shipments.CreateOutgoing(ctx, outgoing)
	})
	if err != nil {
		return nil, nil, wrapShipmentErr(err)
	}

	s.invalidate(ctx, assetID)
	s.recorder.Record(ctx, activity.Event{
		AssetID:  assetID,
		Action:   activity.ActionAssetsConsumed,
		Field:    "quantity",
		OldValue: strconv.Itoa(asset.Quantity + quantity),
		NewValue: strconv.Itoa(asset.Quantity),
	})
	return outgoing, asset, nil
}

func (s *Service) ListIncoming(ctx context.Context) ([]*models.IncomingShipment, error) {
	shipments, err := s.shipments.ListIncoming(ctx)
	if err != nil {
		return nil, wrapShipmentErr(err)
	}
	return shipments, nil
}

func (s *Service) ListOutgoing(ctx context.Context) ([]*models.OutgoingAsset, error) {
	outgoing, err := s.shipments.ListOutgoing(ctx)
	if err != nil {
		return nil, wrapShipmentErr(err)
	}
	return outgoing, nil
}

func (s *Service) invalidate(ctx context.Context, assetID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, assetID)
	}
}

func wrapShipmentErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "asset not found")
	case errors.Is(err, sentinel.ErrInsufficientQuantity):
		return dErrors.New(dErrors.CodeInsufficientQuantity, "insufficient available quantity")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "shipment operation failed")
}
