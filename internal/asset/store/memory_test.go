package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"stockroom/internal/asset/models"
	"stockroom/pkg/platform/sentinel"
)

type AssetStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *AssetStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Now()
}

func TestAssetStoreSuite(t *testing.T) {
	suite.Run(t, new(AssetStoreSuite))
}

func (s *AssetStoreSuite) newAsset(name string, quantity int) *models.Asset {
	asset, err := models.NewAsset(uuid.New(), name, "PC-100", uuid.New().String(), decimal.NewFromInt(10), quantity, "user-1", "Dana", s.now)
	s.Require().NoError(err)
	return asset
}

func (s *AssetStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds asset by ID", func() {
		asset := s.newAsset("Laptop", 5)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		found, err := s.store.FindByID(s.ctx, asset.ID)
		s.Require().NoError(err)
		s.Equal(asset.Name, found.Name)
		s.Equal(5, found.Quantity)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate serial number regardless of case", func() {
		first, err := models.NewAsset(uuid.New(), "Monitor", "PC-200", "SN-ABC", decimal.Zero, 1, "user-1", "Dana", s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Create(s.ctx, first))

		dup, err := models.NewAsset(uuid.New(), "Monitor 2", "PC-201", "sn-abc", decimal.Zero, 1, "user-1", "Dana", s.now)
		s.Require().NoError(err)
		s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})
}

func (s *AssetStoreSuite) TestDeductForIssue() {
	s.Run("deducts and flags has_issue when stock suffices", func() {
		asset := s.newAsset("Printer", 10)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		updated, err := s.store.DeductForIssue(s.ctx, asset.ID, 4, s.now)
		s.Require().NoError(err)
		s.Equal(6, updated.Quantity)
		s.True(updated.HasIssue)
	})

	s.Run("rejects when requested exceeds available", func() {
		asset := s.newAsset("Scanner", 3)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		_, err := s.store.DeductForIssue(s.ctx, asset.ID, 5, s.now)
		s.Require().ErrorIs(err, sentinel.ErrInsufficientQuantity)

		found, err := s.store.FindByID(s.ctx, asset.ID)
		s.Require().NoError(err)
		s.Equal(3, found.Quantity)
		s.False(found.HasIssue)
	})

	s.Run("allows deducting the full quantity", func() {
		asset := s.newAsset("Router", 2)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		updated, err := s.store.DeductForIssue(s.ctx, asset.ID, 2, s.now)
		s.Require().NoError(err)
		s.Equal(0, updated.Quantity)
	})

	s.Run("returns ErrNotFound for unknown asset", func() {
		_, err := s.store.DeductForIssue(s.ctx, uuid.New(), 1, s.now)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AssetStoreSuite) TestRestoreQuantity() {
	s.Run("restores quantity and clears has_issue", func() {
		asset := s.newAsset("Switch", 10)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		_, err := s.store.DeductForIssue(s.ctx, asset.ID, 6, s.now)
		s.Require().NoError(err)

		restored, err := s.store.RestoreQuantity(s.ctx, asset.ID, 6, false, s.now)
		s.Require().NoError(err)
		s.Equal(10, restored.Quantity)
		s.False(restored.HasIssue)
	})

	s.Run("keeps has_issue when other issues remain", func() {
		asset := s.newAsset("Firewall", 10)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		_, err := s.store.DeductForIssue(s.ctx, asset.ID, 2, s.now)
		s.Require().NoError(err)
		_, err = s.store.DeductForIssue(s.ctx, asset.ID, 3, s.now)
		s.Require().NoError(err)

		restored, err := s.store.RestoreQuantity(s.ctx, asset.ID, 2, true, s.now)
		s.Require().NoError(err)
		s.Equal(7, restored.Quantity)
		s.True(restored.HasIssue)
	})
}

func (s *AssetStoreSuite) TestBorrowingMoves() {
	s.Run("reserve moves units from available to borrowed", func() {
		asset := s.newAsset("Projector", 8)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		updated, err := s.store.ReserveForBorrowing(s.ctx, asset.ID, 3, s.now)
		s.Require().NoError(err)
		s.Equal(5, updated.Quantity)
		s.Equal(3, updated.BorrowedQuantity)
	})

	s.Run("release moves units back", func() {
		asset := s.newAsset("Camera", 8)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		_, err := s.store.ReserveForBorrowing(s.ctx, asset.ID, 3, s.now)
		s.Require().NoError(err)

		updated, err := s.store.ReleaseFromBorrowing(s.ctx, asset.ID, 3, s.now)
		s.Require().NoError(err)
		s.Equal(8, updated.Quantity)
		s.Equal(0, updated.BorrowedQuantity)
	})

	s.Run("reserve rejects when stock is short", func() {
		asset := s.newAsset("Tripod", 2)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		_, err := s.store.ReserveForBorrowing(s.ctx, asset.ID, 5, s.now)
		s.Require().ErrorIs(err, sentinel.ErrInsufficientQuantity)
	})

	s.Run("release rejects when more than borrowed", func() {
		asset := s.newAsset("Lens", 5)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		_, err := s.store.ReserveForBorrowing(s.ctx, asset.ID, 1, s.now)
		s.Require().NoError(err)

		_, err = s.store.ReleaseFromBorrowing(s.ctx, asset.ID, 2, s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *AssetStoreSuite) TestQuantityAdjustments() {
	s.Run("add increases available stock", func() {
		asset := s.newAsset("Cable", 1)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		updated, err := s.store.AddQuantity(s.ctx, asset.ID, 9, s.now)
		s.Require().NoError(err)
		s.Equal(10, updated.Quantity)
	})

	s.Run("deduct rejects overdraw", func() {
		asset := s.newAsset("Adapter", 4)
		s.Require().NoError(s.store.Create(s.ctx, asset))

		_, err := s.store.DeductQuantity(s.ctx, asset.ID, 5, s.now)
		s.Require().ErrorIs(err, sentinel.ErrInsufficientQuantity)
	})
}

func (s *AssetStoreSuite) TestDeactivate() {
	asset := s.newAsset("Desk", 1)
	s.Require().NoError(s.store.Create(s.ctx, asset))

	s.Require().NoError(s.store.Deactivate(s.ctx, asset.ID, s.now))

	found, err := s.store.FindByID(s.ctx, asset.ID)
	s.Require().NoError(err)
	s.False(found.Active)
}
