package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockroom/internal/asset/models"
	"stockroom/pkg/platform/sentinel"
)

// InMemory keeps assets in a map guarded by a RWMutex. It backs unit tests
// and local development; quantity mutations hold the write lock for the whole
// check-and-set so they stay as atomic as the SQL conditional updates.
type InMemory struct {
	mu     sync.RWMutex
	assets map[uuid.UUID]*models.Asset
}

func NewInMemory() *InMemory {
	return &InMemory{assets: make(map[uuid.UUID]*models.Asset)}
}

func (s *InMemory) Create(ctx context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[asset.ID]; ok {
		return sentinel.ErrConflict
	}
	if asset.SerialNumber != "" {
		for _, existing := range s.assets {
			if strings.EqualFold(existing.SerialNumber, asset.SerialNumber) {
				return sentinel.ErrConflict
			}
		}
	}
	cp := *asset
	s.assets[asset.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *asset
	return &cp, nil
}

func (s *InMemory) List(ctx context.Context) ([]*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Asset, 0, len(s.assets))
	for _, asset := range s.assets {
		cp := *asset
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Update(ctx context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[asset.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *asset
	s.assets[asset.ID] = &cp
	return nil
}

func (s *InMemory) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	asset.Active = false
	asset.UpdatedAt = now
	return nil
}

// DeductForIssue removes n units and flags the open issue, or reports why it
// cannot: ErrNotFound for a missing asset, ErrInsufficientQuantity when fewer
// than n units are on hand. No partial mutation in either case.
func (s *InMemory) DeductForIssue(ctx context.Context, id uuid.UUID, n int, now time.Time) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if asset.Quantity < n {
		return nil, sentinel.ErrInsufficientQuantity
	}
	asset.Quantity -= n
	asset.HasIssue = true
	asset.UpdatedAt = now
	cp := *asset
	return &cp, nil
}

// RestoreQuantity adds n units back and recomputes the issue flag from the
// caller's view of remaining open issues.
func (s *InMemory) RestoreQuantity(ctx context.Context, id uuid.UUID, n int, hasIssue bool, now time.Time) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	asset.Quantity += n
	asset.HasIssue = hasIssue
	asset.UpdatedAt = now
	cp := *asset
	return &cp, nil
}

// DeductQuantity removes n units unconditionally flag-wise (outgoing assets).
func (s *InMemory) DeductQuantity(ctx context.Context, id uuid.UUID, n int, now time.Time) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if asset.Quantity < n {
		return nil, sentinel.ErrInsufficientQuantity
	}
	asset.Quantity -= n
	asset.UpdatedAt = now
	cp := *asset
	return &cp, nil
}

// AddQuantity adds n units (incoming shipments).
func (s *InMemory) AddQuantity(ctx context.Context, id uuid.UUID, n int, now time.Time) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	asset.Quantity += n
	asset.UpdatedAt = now
	cp := *asset
	return &cp, nil
}

// ReserveForBorrowing moves n units from on-hand to borrowed.
func (s *InMemory) ReserveForBorrowing(ctx context.Context, id uuid.UUID, n int, now time.Time) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if asset.Quantity < n {
		return nil, sentinel.ErrInsufficientQuantity
	}
	asset.Quantity -= n
	asset.BorrowedQuantity += n
	asset.UpdatedAt = now
	cp := *asset
	return &cp, nil
}

// ReleaseFromBorrowing moves n units back from borrowed to on-hand.
func (s *InMemory) ReleaseFromBorrowing(ctx context.Context, id uuid.UUID, n int, now time.Time) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if asset.BorrowedQuantity < n {
		return nil, sentinel.ErrInvalidState
	}
	asset.Quantity += n
	asset.BorrowedQuantity -= n
	asset.UpdatedAt = now
	cp := *asset
	return &cp, nil
}

// SetUnderRepair flips the derived repair flag.
func (s *InMemory) SetUnderRepair(ctx context.Context, id uuid.UUID, underRepair bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	asset.UnderRepair = underRepair
	asset.UpdatedAt = now
	return nil
}
