package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockroom/internal/borrowing/models"
	"stockroom/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded borrowing store for tests and local development.
type InMemory struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*models.BorrowingRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[uuid.UUID]*models.BorrowingRequest)}
}

func (s *InMemory) Create(ctx context.Context, request *models.BorrowingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[request.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *request
	s.requests[request.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id uuid.UUID) (*models.BorrowingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *request
	return &cp, nil
}

func (s *InMemory) List(ctx context.Context) ([]*models.BorrowingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.BorrowingRequest, 0, len(s.requests))
	for _, request := range s.requests {
		cp := *request
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

// Return transitions an active request to Returned under one lock, mirroring
// the conditional update the PostgreSQL store issues.
func (s *InMemory) Return(ctx context.Context, id uuid.UUID, now time.Time) (*models.BorrowingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if request.Status != models.StatusActive {
		return nil, sentinel.ErrInvalidState
	}
	request.ApplyReturn(now)
	cp := *request
	return &cp, nil
}
