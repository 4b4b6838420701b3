// Package redis provides a Redis-backed State Store, required for
// interactive mode to survive the suspension of a run across process
// restarts (§4.10: "interactive mode requires a store that survives the
// suspension of a run").
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/state"
)

// Store is a Redis implementation of state.Store.
type Store struct {
	client *redis.Client
	prefix string
	// TTL bounds how long a suspended run's snapshot is retained. Zero means
	// no expiry. Retention/TTL policy for interactive-mode runs is an open
	// question in the source (§9); this field lets callers pick one without
	// the kernel baking in an opinion.
	TTL time.Duration
}

var _ state.Store = (*Store)(nil)

// New creates a Store backed by client, namespacing keys under prefix
// (e.g. "router:run:").
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "router:run:"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(runID string) string { return s.prefix + runID }

func (s *Store) Save(ctx context.Context, runID string, rc *router.RunContext) error {
	data, err := json.Marshal(rc)
	if err != nil {
		return fmt.Errorf("marshal run context %q: %w", runID, err)
	}
	if err := s.client.Set(ctx, s.key(runID), data, s.TTL).Err(); err != nil {
		return fmt.Errorf("redis save run %q: %w", runID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, runID string) (*router.RunContext, error) {
	data, err := s.client.Get(ctx, s.key(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, state.ErrNotFound
		}
		return nil, fmt.Errorf("redis load run %q: %w", runID, err)
	}
	var rc router.RunContext
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("unmarshal run context %q: %w", runID, err)
	}
	return &rc, nil
}
