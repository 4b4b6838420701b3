// Package inmem implements engine.Engine by running the Driver's phases
// directly on a goroutine, with no durability across process restarts — the
// default engine for single-process operation (§9).
package inmem

import (
	"context"
	"sync"

	"github.com/premanandc/agent-fleet/driver"
	"github.com/premanandc/agent-fleet/engine"
	"github.com/premanandc/agent-fleet/router"
)

// Engine runs the Driver's state machine on an in-process goroutine per run.
type Engine struct {
	Driver *driver.Driver

	mu    sync.Mutex
	runs  map[string]*handle
}

var _ engine.Engine = (*Engine)(nil)

// New constructs an in-memory Engine driving d.
func New(d *driver.Driver) *Engine {
	return &Engine{Driver: d, runs: make(map[string]*handle)}
}

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	result *router.RunContext
	err    error
}

func (h *handle) Wait(ctx context.Context) (*router.RunContext, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *handle) Cancel(ctx context.Context) error {
	h.cancel()
	return nil
}

// StartRun implements engine.Engine.
func (e *Engine) StartRun(ctx context.Context, req engine.RunRequest) (engine.Handle, error) {
	runCtx, cancel := context.WithCancel(context.Background())
	h := &handle{cancel: cancel, done: make(chan struct{})}

	e.mu.Lock()
	e.runs[req.RunID] = h
	e.mu.Unlock()

	go func() {
		defer close(h.done)
		rc, err := e.Driver.Start(runCtx, req.RunID, req.OriginalRequest, req.Mode, req.MaxReplans)
		h.result, h.err = rc, err
	}()

	return h, nil
}

// ActiveRuns returns the ids of runs started or resumed by this Engine that
// have not yet settled. Intended for process-shutdown draining and basic
// observability.
func (e *Engine) ActiveRuns() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.runs))
	for id, h := range e.runs {
		select {
		case <-h.done:
			continue
		default:
			ids = append(ids, id)
		}
	}
	return ids
}

// ResumeRun implements engine.Engine.
func (e *Engine) ResumeRun(ctx context.Context, runID, answer string) (engine.Handle, error) {
	runCtx, cancel := context.WithCancel(context.Background())
	h := &handle{cancel: cancel, done: make(chan struct{})}

	e.mu.Lock()
	e.runs[runID] = h
	e.mu.Unlock()

	go func() {
		defer close(h.done)
		rc, err := e.Driver.Resume(runCtx, runID, answer)
		h.result, h.err = rc, err
	}()

	return h, nil
}
