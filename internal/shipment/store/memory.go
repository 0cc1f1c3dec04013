package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"stockroom/internal/shipment/models"
	"stockroom/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded shipment store for tests and local development.
type InMemory struct {
	mu       sync.RWMutex
	incoming map[uuid.UUID]*models.IncomingShipment
	outgoing map[uuid.UUID]*models.OutgoingAsset
}

func NewInMemory() *InMemory {
	return &InMemory{
		incoming: make(map[uuid.UUID]*models.IncomingShipment),
		outgoing: make(map[uuid.UUID]*models.OutgoingAsset),
	}
}

func (s *InMemory) CreateIncoming(ctx context.Context, shipment *models.IncomingShipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.incoming[shipment.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *shipment
	s.incoming[shipment.ID] = &cp
	return nil
}

func (s *InMemory) ListIncoming(ctx context.Context) ([]*models.IncomingShipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.IncomingShipment, 0, len(s.incoming))
	for _, shipment := range s.incoming {
		cp := *shipment
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

func (s *InMemory) CreateOutgoing(ctx context.Context, outgoing *models.OutgoingAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.outgoing[outgoing.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *outgoing
	s.outgoing[outgoing.ID] = &cp
	return nil
}

func (s *InMemory) ListOutgoing(ctx context.Context) ([]*models.OutgoingAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.OutgoingAsset, 0, len(s.outgoing))
	for _, outgoing := range s.outgoing {
		cp := *outgoing
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
