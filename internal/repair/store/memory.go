package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockroom/internal/repair/models"
	"stockroom/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded repair store for tests and local development.
type InMemory struct {
	mu          sync.RWMutex
	repairs     map[uuid.UUID]*models.RepairRecord
	maintenance map[uuid.UUID]*models.MaintenanceRecord
}

func NewInMemory() *InMemory {
	return &InMemory{
		repairs:     make(map[uuid.UUID]*models.RepairRecord),
		maintenance: make(map[uuid.UUID]*models.MaintenanceRecord),
	}
}

func (s *InMemory) Create(ctx context.Context, repair *models.RepairRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.repairs[repair.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *repair
	s.repairs[repair.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id uuid.UUID) (*models.RepairRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repair, ok := s.repairs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *repair
	return &cp, nil
}

func (s *InMemory) List(ctx context.Context) ([]*models.RepairRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.RepairRecord, 0, len(s.repairs))
	for _, repair := range s.repairs {
		cp := *repair
		out = append(out, &cp)
	}
	sortRepairs(out)
	return out, nil
}

func (s *InMemory) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.RepairRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.RepairRecord
	for _, repair := range s.repairs {
		if repair.AssetID == assetID {
			cp := *repair
			out = append(out, &cp)
		}
	}
	sortRepairs(out)
	return out, nil
}

// Complete transitions a pending record to Completed. The check and the
// transition happen under one lock, mirroring the conditional update the
// PostgreSQL store issues.
func (s *InMemory) Complete(ctx context.Context, id uuid.UUID, now time.Time) (*models.RepairRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repair, ok := s.repairs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := repair.CanComplete(); err != nil {
		return nil, sentinel.ErrInvalidState
	}
	repair.ApplyCompletion(now)
	cp := *repair
	return &cp, nil
}

func (s *InMemory) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.repairs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.repairs, id)
	return nil
}

// CountOpenByAsset counts pending repairs for an asset, used to recompute
// the under_repair flag.
func (s *InMemory) CountOpenByAsset(ctx context.Context, assetID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, repair := range s.repairs {
		if repair.AssetID == assetID && repair.Status == models.StatusPending {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) CreateMaintenance(ctx context.Context, record *models.MaintenanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.maintenance[record.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *record
	s.maintenance[record.ID] = &cp
	return nil
}

func (s *InMemory) ListMaintenanceByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.MaintenanceRecord
	for _, record := range s.maintenance {
		if record.AssetID == assetID {
			cp := *record
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PerformedAt.Equal(out[j].PerformedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].PerformedAt.After(out[j].PerformedAt)
	})
	return out, nil
}

func (s *InMemory) DeleteMaintenance(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.maintenance[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.maintenance, id)
	return nil
}

func sortRepairs(out []*models.RepairRecord) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}
