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
	issuemetrics "stockroom/internal/issue/metrics"
	"stockroom/internal/issue/models"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/sentinel"
	"stockroom/pkg/platform/tx"
	"stockroom/pkg/requestcontext"
)

// AssetStore is the slice of the asset store the issue service needs. The
// deduct and restore operations are single conditional statements; the
// service never checks quantity itself.
type AssetStore interface {
	DeductForIssue(ctx context.Context, id uuid.UUID, n int, now time.Time) (*assetmodels.Asset, error)
	RestoreQuantity(ctx context.Context, id uuid.UUID, n int, hasIssue bool, now time.Time) (*assetmodels.Asset, error)
}

type IssueStore interface {
	Create(ctx context.Context, issue *models.AssetIssue) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AssetIssue, error)
	List(ctx context.Context) ([]*models.AssetIssue, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.AssetIssue, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountOpenByAsset(ctx context.Context, assetID uuid.UUID) (int, error)
}

// CacheInvalidator drops cached asset snapshots after quantity mutations.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

// Service owns the report and delete flows for asset issues. Both run inside
// a single transaction so the stock adjustment and the issue row move
// together or not at all.
type Service struct {
	runner   tx.Runner
	assets   AssetStore
	issues   IssueStore
	cache    CacheInvalidator
	metrics  *issuemetrics.Metrics
	recorder activity.Recorder
	tracer   trace.Tracer
}

type Option func(*Service)

func WithCache(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *issuemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRecorder(r activity.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(runner tx.Runner, assets AssetStore, issues IssueStore, opts ...Option) *Service {
	s := &Service{
		runner:   runner,
		assets:   assets,
		issues:   issues,
		recorder: activity.NopRecorder{},
		tracer:   otel.Tracer("stockroom/issue"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReportIssue deducts issue_quantity from available stock and records a
// Pending issue in one transaction. The deduct is a conditional update; when
// available stock is short the whole operation is rejected and nothing is
// written.
func (s *Service) ReportIssue(ctx context.Context, assetID uuid.UUID, issueType, description, priority string, issueQuantity int) (*models.AssetIssue, *assetmodels.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "issue.Report", trace.WithAttributes(
		attribute.String("asset.id", assetID.String()),
		attribute.Int("issue.quantity", issueQuantity),
	))
	defer span.End()

	actor := requestcontext.Actor(ctx)
	issue, err := models.NewAssetIssue(uuid.New(), assetID, issueType, description, priority, issueQuantity, actor.ID, actor.Name, requestcontext.Now(ctx))
	if err != nil {
		return nil, nil, err
	}

	var asset *assetmodels.Asset
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		asset, err = s.assets.DeductForIssue(ctx, assetID, issueQuantity, issue.CreatedAt)
		if err != nil {
			return err
		}
		return s.issues.Create(ctx, issue)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrInsufficientQuantity) && s.metrics != nil {
			s.metrics.IncrementReportsRejected()
		}
		return nil, nil, wrapIssueErr(err)
	}

	s.invalidate(ctx, assetID)
	s.recorder.Record(ctx, activity.Event{
		AssetID:  assetID,
		Action:   activity.ActionIssueReported,
		Field:    "quantity",
		OldValue: strconv.Itoa(asset.Quantity + issueQuantity),
		NewValue: strconv.Itoa(asset.Quantity),
	})
	if s.metrics != nil {
		s.metrics.IncrementIssuesReported()
	}
	return issue, asset, nil
}

// DeleteIssue removes an issue and restores its issue_quantity to available
// stock. has_issue is recomputed from the issues remaining after the delete,
// inside the same transaction.
func (s *Service) DeleteIssue(ctx context.Context, issueID uuid.UUID) (*assetmodels.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "issue.Delete", trace.WithAttributes(
		attribute.String("issue.id", issueID.String()),
	))
	defer span.End()

	var (
		issue *models.AssetIssue
		asset *assetmodels.Asset
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		issue, err = s.issues.FindByID(ctx, issueID)
		if err != nil {
			return err
		}
		if err := s.issues.Delete(ctx, issueID); err != nil {
			return err
		}
		remaining, err := s.issues.CountOpenByAsset(ctx, issue.AssetID)
		if err != nil {
			return err
		}
		asset, err = s.assets.RestoreQuantity(ctx, issue.AssetID, issue.IssueQuantity, remaining > 0, requestcontext.Now(ctx))
		return err
	})
	if err != nil {
		return nil, wrapIssueErr(err)
	}

	s.invalidate(ctx, issue.AssetID)
	s.recorder.Record(ctx, activity.Event{
		AssetID:  issue.AssetID,
		Action:   activity.ActionIssueDeleted,
		Field:    "quantity",
		OldValue: strconv.Itoa(asset.Quantity - issue.IssueQuantity),
		NewValue: strconv.Itoa(asset.Quantity),
	})
	if s.metrics != nil {
		s.metrics.IncrementIssuesDeleted()
	}
	return asset, nil
}

func (s *Service) GetIssue(ctx context.Context, id uuid.UUID) (*models.AssetIssue, error) {
	issue, err := s.issues.FindByID(ctx, id)
	if err != nil {
		return nil, wrapIssueErr(err)
	}
	return issue, nil
}

func (s *Service) ListIssues(ctx context.Context) ([]*models.AssetIssue, error) {
	issues, err := s.issues.List(ctx)
	if err != nil {
		return nil, wrapIssueErr(err)
	}
	return issues, nil
}

func (s *Service) ListIssuesByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.AssetIssue, error) {
	issues, err := s.issues.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, wrapIssueErr(err)
	}
	return issues, nil
}

func (s *Service) invalidate(ctx context.Context, assetID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, assetID)
	}
}

func wrapIssueErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "not found")
	case errors.Is(err, sentinel.ErrInsufficientQuantity):
		return dErrors.New(dErrors.CodeInsufficientQuantity, "insufficient available quantity")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "issue operation failed")
}
