// Package memory provides an in-memory implementation of the registry
// store, suitable for development, testing, and single-node deployments.
package memory

import (
	"context"
	"sync"

	"github.com/premanandc/agent-fleet/registry"
)

// Store is an in-memory implementation of registry.Store. It is safe for
// concurrent use.
type Store struct {
	mu    sync.RWMutex
	cards map[string]registry.Card
}

var _ registry.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{cards: make(map[string]registry.Card)}
}

// Register adds or replaces a worker card. Intended for test/bootstrap
// wiring; the memory store has no external control plane to poll.
func (s *Store) Register(card registry.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[card.WorkerID] = card
}

// Deregister removes a worker card, simulating a worker going offline.
func (s *Store) Deregister(workerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, workerID)
}

// ListWorkers returns every currently registered card.
func (s *Store) ListWorkers(ctx context.Context) ([]registry.Card, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]registry.Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}
	return out, nil
}

// GetCard resolves a single worker's card, or registry.ErrNotFound.
func (s *Store) GetCard(ctx context.Context, workerID string) (registry.Card, error) {
	select {
	case <-ctx.Done():
		return registry.Card{}, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[workerID]
	if !ok {
		return registry.Card{}, registry.ErrNotFound
	}
	return c, nil
}
