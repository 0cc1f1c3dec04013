package store

import (
	"context"
	"sync"

	"stockroom/internal/activity"
)

// InMemory keeps the audit trail in an append-only slice per asset.
type InMemory struct {
	mu     sync.RWMutex
	events []activity.Event
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(ctx context.Context, event activity.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) ListByAsset(ctx context.Context, assetID string) ([]activity.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []activity.Event
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].AssetID.String() == assetID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}
