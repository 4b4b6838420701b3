// Package state defines the State Store (C4) contract used to persist and
// restore RunContext across suspend/resume points. Per §4.10 and §9, the
// driver never holds RunContext on a call stack across a suspension point:
// it persists to the Store at every phase boundary so that resuming an
// interactive-mode run is a pure function of (stored state, answer).
package state

import (
	"context"
	"errors"

	"github.com/premanandc/agent-fleet/router"
)

// ErrNotFound is returned by Load when no run exists for the given id.
var ErrNotFound = errors.New("run not found")

// Store persists and restores RunContext snapshots.
type Store interface {
	Save(ctx context.Context, runID string, rc *router.RunContext) error
	Load(ctx context.Context, runID string) (*router.RunContext, error)
}
