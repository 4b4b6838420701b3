// Package engine abstracts the run-execution substrate underneath the
// Driver: an in-memory goroutine-backed engine for single-process operation,
// or a durable engine (Temporal) for runs that must survive process
// restarts across a suspended interactive approval. The Driver's
// state-machine logic (package driver) is substrate-agnostic; only the
// "how is a run actually scheduled and kept alive" concern varies here.
package engine

import (
	"context"

	"github.com/premanandc/agent-fleet/router"
)

// RunRequest starts a new run on an Engine.
type RunRequest struct {
	RunID           string
	OriginalRequest string
	Mode            router.Mode
	MaxReplans      int
}

// Engine starts and resumes runs against whatever durable-execution
// substrate it wraps.
type Engine interface {
	// StartRun begins a new run and returns a handle to observe it.
	StartRun(ctx context.Context, req RunRequest) (Handle, error)

	// ResumeRun continues a run previously suspended awaiting interactive
	// approval, supplying the external answer.
	ResumeRun(ctx context.Context, runID, answer string) (Handle, error)
}

// Handle lets a caller wait for or cancel a started/resumed run.
type Handle interface {
	// Wait blocks until the run reaches a terminal status or suspends again
	// awaiting approval, returning the resulting RunContext.
	Wait(ctx context.Context) (*router.RunContext, error)

	// Cancel requests cancellation of the run.
	Cancel(ctx context.Context) error
}
