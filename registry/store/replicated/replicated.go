// Package replicated provides a Pulse replicated-map backed implementation
// of the registry store.
//
// The store persists worker cards in a Pulse replicated map (rmap), which is
// backed by Redis. This makes worker registrations durable across registry
// process restarts and visible to every node in a multi-node registry
// cluster — the same durability goal as registry/store/mongo, but via a
// gossip-replicated in-memory map instead of a document store, which suits a
// registry that is rewritten far more often than it's queried (card
// registrations/deregistrations on every worker heartbeat).
package replicated

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/premanandc/agent-fleet/registry"
)

// Map is the minimal replicated-map contract required by Store.
//
// Map is satisfied by *rmap.Map from goa.design/pulse/rmap. It is defined
// here to keep Store unit-testable without a live Redis instance, and to
// avoid coupling callers to a concrete Pulse type.
//
// Implementations must be safe for concurrent use.
type Map interface {
	Delete(ctx context.Context, key string) (string, error)
	Get(key string) (string, bool)
	Keys() []string
	Set(ctx context.Context, key, value string) (string, error)
}

const cardKeyPrefix = "registry:worker:"

// Store persists worker cards in a Pulse replicated map.
type Store struct {
	m Map
}

var _ registry.Store = (*Store)(nil)

// New creates a replicated store backed by m (ordinarily an *rmap.Map
// constructed by the caller against a shared Redis instance).
func New(m Map) *Store {
	return &Store{m: m}
}

// Register stores or replaces a worker card, replicating it to every node
// sharing the backing map.
func (s *Store) Register(ctx context.Context, card registry.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("replicated: marshal card %q: %w", card.WorkerID, err)
	}
	if _, err := s.m.Set(ctx, cardKey(card.WorkerID), string(b)); err != nil {
		return fmt.Errorf("replicated: store card %q: %w", card.WorkerID, err)
	}
	return nil
}

// Deregister removes a worker card from the replicated map.
func (s *Store) Deregister(ctx context.Context, workerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.m.Delete(ctx, cardKey(workerID)); err != nil {
		return fmt.Errorf("replicated: delete card %q: %w", workerID, err)
	}
	return nil
}

// ListWorkers implements registry.Store.
func (s *Store) ListWorkers(ctx context.Context) ([]registry.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]registry.Card, 0)
	for _, key := range s.m.Keys() {
		if !strings.HasPrefix(key, cardKeyPrefix) {
			continue
		}
		val, ok := s.m.Get(key)
		if !ok {
			continue
		}
		var card registry.Card
		if err := json.Unmarshal([]byte(val), &card); err != nil {
			return nil, fmt.Errorf("replicated: unmarshal card %q: %w", key, err)
		}
		out = append(out, card)
	}
	return out, nil
}

// GetCard implements registry.Store.
func (s *Store) GetCard(ctx context.Context, workerID string) (registry.Card, error) {
	if err := ctx.Err(); err != nil {
		return registry.Card{}, err
	}
	val, ok := s.m.Get(cardKey(workerID))
	if !ok {
		return registry.Card{}, registry.ErrNotFound
	}
	var card registry.Card
	if err := json.Unmarshal([]byte(val), &card); err != nil {
		return registry.Card{}, fmt.Errorf("replicated: unmarshal card %q: %w", workerID, err)
	}
	return card, nil
}

func cardKey(workerID string) string {
	return cardKeyPrefix + workerID
}
