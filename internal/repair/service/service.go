package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stockroom/internal/activity"
	"stockroom/internal/repair/models"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/sentinel"
	"stockroom/pkg/platform/tx"
	"stockroom/pkg/requestcontext"
)

// AssetStore is the slice of the asset store the repair service needs.
type AssetStore interface {
	SetUnderRepair(ctx context.Context, id uuid.UUID, underRepair bool, now time.Time) error
}

type RepairStore interface {
	Create(ctx context.Context, repair *models.RepairRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RepairRecord, error)
	List(ctx context.Context) ([]*models.RepairRecord, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.RepairRecord, error)
	Complete(ctx context.Context, id uuid.UUID, now time.Time) (*models.RepairRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountOpenByAsset(ctx context.Context, assetID uuid.UUID) (int, error)
	CreateMaintenance(ctx context.Context, record *models.MaintenanceRecord) error
	ListMaintenanceByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.MaintenanceRecord, error)
	DeleteMaintenance(ctx context.Context, id uuid.UUID) error
}

// CacheInvalidator drops cached asset snapshots when the under_repair flag
// changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

// Service owns the repair lifecycle. The under_repair flag on the asset is
// derived state: true while at least one pending repair exists, recomputed
// in the same transaction as every repair mutation.
type Service struct {
	runner   tx.Runner
	assets   AssetStore
	repairs  RepairStore
	cache    CacheInvalidator
	recorder activity.Recorder
	tracer   trace.Tracer
}

type Option func(*Service)

func WithCache(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

func WithRecorder(r activity.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(runner tx.Runner, assets AssetStore, repairs RepairStore, opts ...Option) *Service {
	s := &Service{
		runner:   runner,
		assets:   assets,
		repairs:  repairs,
		recorder: activity.NopRecorder{},
		tracer:   otel.Tracer("stockroom/repair"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateRepair(ctx context.Context, assetID uuid.UUID, issueID *uuid.UUID, description string, cost decimal.Decimal) (*models.RepairRecord, error) {
	ctx, span := s.tracer.Start(ctx, "repair.Create", trace.WithAttributes(
		attribute.String("asset.id", assetID.String()),
	))
	defer span.End()

	actor := requestcontext.Actor(ctx)
	repair, err := models.NewRepairRecord(uuid.New(), assetID, issueID, description, cost, actor.ID, actor.Name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.assets.SetUnderRepair(ctx, assetID, true, repair.CreatedAt); err != nil {
			return err
		}
		return s.repairs.Create(ctx, repair)
	})
	if err != nil {
		return nil, wrapRepairErr(err)
	}

	s.invalidate(ctx, assetID)
	s.recorder.Record(ctx, activity.Event{
		AssetID:  assetID,
		Action:   activity.ActionRepairCreated,
		Field:    "under_repair",
		NewValue: "true",
	})
	return repair, nil
}

// CompleteRepair marks a repair Completed. The store transition is a
// conditional update, so a record completes exactly once even under
// concurrent requests.
func (s *Service) CompleteRepair(ctx context.Context, repairID uuid.UUID) (*models.RepairRecord, error) {
	ctx, span := s.tracer.Start(ctx, "repair.Complete", trace.WithAttributes(
		attribute.String("repair.id", repairID.String()),
	))
	defer span.End()

	var repair *models.RepairRecord
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		repair, err = s.repairs.Complete(ctx, repairID, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		return s.recomputeUnderRepair(ctx, repair.AssetID)
	})
	if err != nil {
		return nil, wrapRepairErr(err)
	}

	s.invalidate(ctx, repair.AssetID)
	s.recorder.Record(ctx, activity.Event{
		AssetID:  repair.AssetID,
		Action:   activity.ActionRepairCompleted,
		Field:    "status",
		OldValue: string(models.StatusPending),
		NewValue: string(models.StatusCompleted),
	})
	return repair, nil
}

func (s *Service) DeleteRepair(ctx context.Context, repairID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "repair.Delete", trace.WithAttributes(
		attribute.String("repair.id", repairID.String()),
	))
	defer span.End()

	var repair *models.RepairRecord
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		repair, err = s.repairs.FindByID(ctx, repairID)
		if err != nil {
			return err
		}
		if err := s.repairs.Delete(ctx, repairID); err != nil {
			return err
		}
		return s.recomputeUnderRepair(ctx, repair.AssetID)
	})
	if err != nil {
		return wrapRepairErr(err)
	}

	s.invalidate(ctx, repair.AssetID)
	s.recorder.Record(ctx, activity.Event{
		AssetID: repair.AssetID,
		Action:  activity.ActionRepairDeleted,
		Field:   "status",
	})
	return nil
}

func (s *Service) GetRepair(ctx context.Context, id uuid.UUID) (*models.RepairRecord, error) {
	repair, err := s.repairs.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepairErr(err)
	}
	return repair, nil
}

func (s *Service) ListRepairs(ctx context.Context) ([]*models.RepairRecord, error) {
	repairs, err := s.repairs.List(ctx)
	if err != nil {
		return nil, wrapRepairErr(err)
	}
	return repairs, nil
}

func (s *Service) ListRepairsByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.RepairRecord, error) {
	repairs, err := s.repairs.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, wrapRepairErr(err)
	}
	return repairs, nil
}

func (s *Service) CreateMaintenance(ctx context.Context, assetID uuid.UUID, description string, performedAt time.Time) (*models.MaintenanceRecord, error) {
	actor := requestcontext.Actor(ctx)
	record, err := models.NewMaintenanceRecord(uuid.New(), assetID, description, actor.ID, actor.Name, performedAt, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.repairs.CreateMaintenance(ctx, record); err != nil {
		return nil, wrapRepairErr(err)
	}
	return record, nil
}

func (s *Service) ListMaintenanceByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.MaintenanceRecord, error) {
	records, err := s.repairs.ListMaintenanceByAsset(ctx, assetID)
	if err != nil {
		return nil, wrapRepairErr(err)
	}
	return records, nil
}

func (s *Service) DeleteMaintenance(ctx context.Context, id uuid.UUID) error {
	if err := s.repairs.DeleteMaintenance(ctx, id); err != nil {
		return wrapRepairErr(err)
	}
	return nil
}

func (s *Service) recomputeUnderRepair(ctx context.Context, assetID uuid.UUID) error {
	remaining, err := s.repairs.CountOpenByAsset(ctx, assetID)
	if err != nil {
		return err
	}
	return s.assets.SetUnderRepair(ctx, assetID, remaining > 0, requestcontext.Now(ctx))
}

func (s *Service) invalidate(ctx context.Context, assetID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, assetID)
	}
}

func wrapRepairErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "repair record already completed")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "repair operation failed")
}
