// Package inmem provides an in-memory State Store, the default for
// single-process operation (§4.10).
package inmem

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/state"
)

// Store is an in-memory implementation of state.Store. It is safe for
// concurrent use. Snapshots are deep-copied on Save/Load so callers cannot
// mutate a stored RunContext out from under a suspended run.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*router.RunContext
}

var _ state.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]*router.RunContext)}
}

func (s *Store) Save(ctx context.Context, runID string, rc *router.RunContext) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	cp, err := deepCopy(rc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = cp
	return nil
}

// deepCopy clones rc through a JSON round trip, so the copy shares no
// slices or pointers with rc.
func deepCopy(rc *router.RunContext) (*router.RunContext, error) {
	data, err := json.Marshal(rc)
	if err != nil {
		return nil, err
	}
	var cp router.RunContext
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) Load(ctx context.Context, runID string) (*router.RunContext, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rc, ok := s.runs[runID]
	if !ok {
		return nil, state.ErrNotFound
	}
	return deepCopy(rc)
}
