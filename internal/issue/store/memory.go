package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"stockroom/internal/issue/models"
	"stockroom/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded issue store for tests and local development.
type InMemory struct {
	mu     sync.RWMutex
	issues map[uuid.UUID]*models.AssetIssue
}

func NewInMemory() *InMemory {
	return &InMemory{issues: make(map[uuid.UUID]*models.AssetIssue)}
}

func (s *InMemory) Create(ctx context.Context, issue *models.AssetIssue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.issues[issue.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *issue
	s.issues[issue.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id uuid.UUID) (*models.AssetIssue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *issue
	return &cp, nil
}

func (s *InMemory) List(ctx context.Context) ([]*models.AssetIssue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.AssetIssue, 0, len(s.issues))
	for _, issue := range s.issues {
		cp := *issue
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

func (s *InMemory) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.AssetIssue, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.AssetIssue
	for _, issue := range all {
		if issue.AssetID == assetID {
			out = append(out, issue)
		}
	}
	return out, nil
}

func (s *InMemory) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.issues, id)
	return nil
}

// CountOpenByAsset counts remaining pending issues for an asset. The issue
// service uses it to recompute the has_issue flag after a delete.
func (s *InMemory) CountOpenByAsset(ctx context.Context, assetID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, issue := range s.issues {
		if issue.AssetID == assetID && issue.Status == models.StatusPending {
			count++
		}
	}
	return count, nil
}
