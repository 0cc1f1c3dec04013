package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stockroom/internal/activity"
	assetmodels "stockroom/internal/asset/models"
	"stockroom/internal/borrowing/models"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/sentinel"
	"stockroom/pkg/platform/tx"
	"stockroom/pkg/requestcontext"
)

// AssetStore is the slice of the asset store the borrowing service needs.
// Reserve moves units from available to borrowed; release moves them back.
type AssetStore interface {
	ReserveForBorrowing(ctx context.Context, id uuid.UUID, n int, now time.Time) (*assetmodels.Asset, error)
	ReleaseFromBorrowing(ctx context.Context, id uuid.UUID, n int, now time.Time) (*assetmodels.Asset, error)
}

type BorrowingStore interface {
	Create(ctx context.Context, request *models.BorrowingRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BorrowingRequest, error)
	List(ctx context.Context) ([]*models.BorrowingRequest, error)
	Return(ctx context.Context, id uuid.UUID, now time.Time) (*models.BorrowingRequest, error)
}

// CacheInvalidator drops cached asset snapshots after quantity mutations.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

// Service owns the borrow and return flows. Each flow pairs the request row
// with the asset's quantity/borrowed_quantity move in one transaction, so
// the sum of the two fields is preserved.
type Service struct {
	runner    tx.Runner
	assets    AssetStore
	borrowing BorrowingStore
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

func NewService(runner tx.Runner, assets AssetStore, borrowing BorrowingStore, opts ...Option) *Service {
	s := &Service{
		runner:    runner,
		assets:    assets,
		borrowing: borrowing,
		recorder:  activity.NopRecorder{},
		tracer:    otel.Tracer("stockroom/borrowing"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Borrow reserves quantity for a borrower. The reserve is a conditional
// update on available stock; short stock rejects the whole operation.
func (s *Service) Borrow(ctx context.Context, assetID uuid.UUID, quantity int, borrower, purpose string) (*models.BorrowingRequest, *assetmodels.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.Borrow", trace.WithAttributes(
		attribute.String("asset.id", assetID.String()),
		attribute.Int("borrow.quantity", quantity),
	))
	defer span.End()

	actor := requestcontext.Actor(ctx)
	request, err := models.NewBorrowingRequest(uuid.New(), assetID, quantity, borrower, purpose, actor.ID, actor.Name, requestcontext.Now(ctx))
	if err != nil {
		return nil, nil, err
	}

	var asset *assetmodels.Asset
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		asset, err = s.assets.ReserveForBorrowing(ctx, assetID, quantity, request.CreatedAt)
		if err != nil {
			return err
		}
		return s.borrowing.Create(ctx, request)
	})
	if err != nil {
		return nil, nil, wrapBorrowingErr(err)
	}

	s.invalidate(ctx, assetID)
	s.recorder.Record(ctx, activity.Event{
		AssetID:  assetID,
		Action:   activity.ActionBorrowRequested,
		Field:    "borrowed_quantity",
		OldValue: strconv.Itoa(asset.BorrowedQuantity - quantity),
		NewValue: strconv.Itoa(asset.BorrowedQuantity),
	})
	return request, asset, nil
}

// Return closes an active request and moves its quantity back to available
// stock. The status transition is conditional, so a double return cannot
// release units twice.
func (s *Service) Return(ctx context.Context, requestID uuid.UUID) (*models.BorrowingRequest, *assetmodels.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.Return", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
	))
	defer span.End()

	var (
		request *models.BorrowingRequest
		asset   *assetmodels.Asset
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = s.borrowing.Return(ctx, requestID, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		asset, err = s.assets.ReleaseFromBorrowing(ctx, request.AssetID, request.Quantity, requestcontext.Now(ctx))
		return err
	})
	if err != nil {
		return nil, nil, wrapBorrowingErr(err)
	}

	s.invalidate(ctx, request.AssetID)
	s.recorder.Record(ctx, activity.Event{
		AssetID:  request.AssetID,
		Action:   activity.ActionBorrowReturned,
		Field:    "borrowed_quantity",
		OldValue: strconv.Itoa(asset.BorrowedQuantity + request.Quantity),
		NewValue: strconv.Itoa(asset.BorrowedQuantity),
	})
	return request, asset, nil
}

func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*models.BorrowingRequest, error) {
	request, err := s.borrowing.FindByID(ctx, id)
	if err != nil {
		return nil, wrapBorrowingErr(err)
	}
	return request, nil
}

func (s *Service) ListRequests(ctx context.Context) ([]*models.BorrowingRequest, error) {
	requests, err := s.borrowing.List(ctx)
	if err != nil {
		return nil, wrapBorrowingErr(err)
	}
	return requests, nil
}

func (s *Service) invalidate(ctx context.Context, assetID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, assetID)
	}
}

func wrapBorrowingErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "not found")
	case errors.Is(err, sentinel.ErrInsufficientQuantity):
		return dErrors.New(dErrors.CodeInsufficientQuantity, "insufficient available quantity")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "borrowing request already returned")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "borrowing operation failed")
}
