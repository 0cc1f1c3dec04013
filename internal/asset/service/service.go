package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockroom/internal/activity"
	"stockroom/internal/asset/cache"
	assetmetrics "stockroom/internal/asset/metrics"
	"stockroom/internal/asset/models"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/sentinel"
	"stockroom/pkg/requestcontext"
)

// Store is the persistence the asset service needs. Both the in-memory and
// the PostgreSQL implementations satisfy it.
type Store interface {
	Create(ctx context.Context, asset *models.Asset) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	List(ctx context.Context) ([]*models.Asset, error)
	Update(ctx context.Context, asset *models.Asset) error
	Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error
}

// Service orchestrates asset lifecycle management. Quantity never changes
// here; the issue, shipment, and borrowing services own stock movement.
type Service struct {
	assets   Store
	cache    *cache.Snapshot
	metrics  *assetmetrics.Metrics
	recorder activity.Recorder
}

type Option func(*Service)

func WithCache(c *cache.Snapshot) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *assetmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRecorder(r activity.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(assets Store, opts ...Option) *Service {
	s := &Service{
		assets:   assets,
		recorder: activity.NopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateAsset(ctx context.Context, name, productCode, serialNumber string, unitCost decimal.Decimal, quantity int) (*models.Asset, error) {
	name = strings.TrimSpace(name)
	actor := requestcontext.Actor(ctx)

	asset, err := models.NewAsset(uuid.New(), name, productCode, serialNumber, unitCost, quantity, actor.ID, actor.Name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "serial number already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create asset")
	}

	s.recorder.Record(ctx, activity.Event{
		AssetID:  asset.ID,
		Action:   activity.ActionAssetCreated,
		Field:    "quantity",
		NewValue: strconv.Itoa(asset.Quantity),
	})

	if s.metrics != nil {
		s.metrics.IncrementAssetsCreated()
	}
	return asset, nil
}

func (s *Service) GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	if s.cache != nil {
		if asset, ok := s.cache.Get(ctx, id); ok {
			if s.metrics != nil {
				s.metrics.IncrementCacheHit()
			}
			return asset, nil
		}
		if s.metrics != nil {
			s.metrics.IncrementCacheMiss()
		}
	}

	asset, err := s.assets.FindByID(ctx, id)
	if err != nil {
		return nil, wrapAssetErr(err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, asset)
	}
	return asset, nil
}

func (s *Service) ListAssets(ctx context.Context) ([]*models.Asset, error) {
	assets, err := s.assets.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assets")
	}
	return assets, nil
}

func (s *Service) UpdateAsset(ctx context.Context, id uuid.UUID, update models.Update) (*models.Asset, error) {
	update.Name = strings.TrimSpace(update.Name)
	if err := update.CanApply(); err != nil {
		return nil, err
	}

	asset, err := s.assets.FindByID(ctx, id)
	if err != nil {
		return nil, wrapAssetErr(err)
	}

	changes := diff(asset, update)
	asset.Apply(update, requestcontext.Now(ctx))

	if err := s.assets.Update(ctx, asset); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "serial number already in use")
		}
		return nil, wrapAssetErr(err)
	}

	s.invalidate(ctx, id)
	for _, change := range changes {
		s.recorder.Record(ctx, activity.Event{
			AssetID:  asset.ID,
			Action:   activity.ActionAssetUpdated,
			Field:    change.field,
			OldValue: change.oldValue,
			NewValue: change.newValue,
		})
	}
	return asset, nil
}

func (s *Service) DeactivateAsset(ctx context.Context, id uuid.UUID) error {
	if err := s.assets.Deactivate(ctx, id, requestcontext.Now(ctx)); err != nil {
		return wrapAssetErr(err)
	}

	s.invalidate(ctx, id)
	s.recorder.Record(ctx, activity.Event{
		AssetID:  id,
		Action:   activity.ActionAssetDeactivated,
		Field:    "active",
		OldValue: "true",
		NewValue: "false",
	})
	if s.metrics != nil {
		s.metrics.IncrementAssetsDeactivated()
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

type fieldChange struct {
	field    string
	oldValue string
	newValue string
}

// diff captures field-level changes for the audit trail before the update is
// applied.
func diff(asset *models.Asset, update models.Update) []fieldChange {
	var changes []fieldChange
	if asset.Name != update.Name {
		changes = append(changes, fieldChange{"name", asset.Name, update.Name})
	}
	if asset.ProductCode != update.ProductCode {
		changes = append(changes, fieldChange{"product_code", asset.ProductCode, update.ProductCode})
	}
	if asset.SerialNumber != update.SerialNumber {
		changes = append(changes, fieldChange{"serial_number", asset.SerialNumber, update.SerialNumber})
	}
	if !asset.UnitCost.Equal(update.UnitCost) {
		changes = append(changes, fieldChange{"unit_cost", asset.UnitCost.String(), update.UnitCost.String()})
	}
	return changes
}

func wrapAssetErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "asset not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "asset store failure")
}
