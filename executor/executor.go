// Package executor implements the Executor (C7): dispatches a Plan's tasks
// to workers via worker.Caller, honoring dependency order, per-task
// deadlines, and cancellation.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/premanandc/agent-fleet/registry"
	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/telemetry"
	"github.com/premanandc/agent-fleet/worker"
)

// DefaultTaskTimeout is the per-task wall-clock deadline applied when Options
// does not set one (§4.4).
const DefaultTaskTimeout = 300 * time.Second

// Options configures an Executor.
type Options struct {
	TaskTimeout time.Duration
	Logger      telemetry.Logger
	Metrics     telemetry.Metrics
	Tracer      telemetry.Tracer
}

// Executor dispatches a Plan's tasks to workers (C7, "the heart" of a run).
type Executor struct {
	caller  worker.Caller
	store   registry.Store
	timeout time.Duration
	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
}

// New constructs an Executor.
func New(caller worker.Caller, store registry.Store, opts Options) *Executor {
	timeout := opts.TaskTimeout
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NoopMetrics{}
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = telemetry.NoopTracer{}
	}
	return &Executor{caller: caller, store: store, timeout: timeout, logger: logger, metrics: metrics, tracer: tracer}
}

// Execute dispatches every task in plan, honoring the plan's Strategy and
// each task's Dependencies, and returns the resulting task map keyed by
// TaskID. It never returns an error for per-task failures — those are
// recorded on the individual Task via Fail — only for conditions that make
// the whole invocation meaningless (a nil plan).
//
// priorResults is the run's accumulated task_results from earlier replan
// cycles (§3, §4.4: execute(plan, prior_task_results) -> updated_task_
// results). Execute itself only runs plan's own tasks; it is the caller's
// job to fold priorResults and this call's return value into the run's
// task_results via router.MergeTaskResults so earlier cycles' tasks are
// never silently dropped.
//
// For StrategyParallel, each wave dispatches concurrently the set of tasks
// eligible to run (the "frontier": tasks whose dependencies have all
// completed). The frontier is not expanded while a wave is in flight; it is
// recomputed over the still-pending tasks once the previous wave's tasks
// have all settled, until no task remains or none can make progress.
//
// For StrategySequential, exactly one task per wave is dispatched: the
// first task in plan.Tasks' literal declared order that is ready, so that
// every sequential task observes the state of all strictly-earlier-in-plan
// tasks (§4.4) regardless of Go's unordered map iteration.
func (e *Executor) Execute(ctx context.Context, plan *router.Plan, priorResults []*router.Task, threadID, originalRequest string) (map[string]*router.Task, error) {
	if plan == nil {
		return nil, fmt.Errorf("executor: nil plan")
	}

	ctx, span := e.tracer.Start(ctx, "executor.Execute")
	defer span.End()

	e.logger.Debug(ctx, "executor starting run cycle", "thread_id", threadID, "prior_task_count", len(priorResults))

	results := make(map[string]*router.Task, len(plan.Tasks))
	byID := make(map[string]*router.Task, len(plan.Tasks))
	for _, t := range plan.Tasks {
		cp := *t
		cp.Status = router.TaskPending
		cp.Result = nil
		cp.Error = nil
		byID[t.TaskID] = &cp
	}

	remaining := make(map[string]*router.Task, len(byID))
	for id, t := range byID {
		remaining[id] = t
	}

	for len(remaining) > 0 {
		if ctx.Err() != nil {
			settleCancelled(remaining, results)
			break
		}

		wave := frontier(remaining, results)
		if len(wave) == 0 {
			// No remaining task has all dependencies satisfied: every
			// survivor depends, directly or transitively, on a task that
			// failed. Mark them all failed rather than spin.
			for _, t := range remaining {
				t.Fail("dependencies not met")
				results[t.TaskID] = t
			}
			break
		}

		if plan.Strategy == router.StrategySequential {
			wave = []*router.Task{firstInPlanOrder(plan, wave)}
		}

		e.runWave(ctx, wave, byID, results, threadID, originalRequest)

		for _, t := range wave {
			delete(remaining, t.TaskID)
		}
	}

	return results, nil
}

// frontier returns the tasks in remaining whose dependencies are all present
// in results as completed tasks. A task whose dependency failed is NOT
// eligible; it is left for the next iteration to be marked failed once no
// further progress is possible.
func frontier(remaining map[string]*router.Task, results map[string]*router.Task) []*router.Task {
	var wave []*router.Task
	for _, t := range remaining {
		ready := true
		blocked := false
		for _, dep := range t.Dependencies {
			dt, ok := results[dep]
			if !ok {
				ready = false
				break
			}
			if dt.Failed() {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		if ready {
			wave = append(wave, t)
		}
	}
	return wave
}

// firstInPlanOrder returns whichever task in wave appears first in plan.Tasks'
// literal declared order. frontier's map iteration makes wave's own order
// nondeterministic, so a sequential plan with more than one dependency-free
// task must re-sort against the plan itself to dispatch in plan order.
func firstInPlanOrder(plan *router.Plan, wave []*router.Task) *router.Task {
	ready := make(map[string]*router.Task, len(wave))
	for _, t := range wave {
		ready[t.TaskID] = t
	}
	for _, pt := range plan.Tasks {
		if t, ok := ready[pt.TaskID]; ok {
			return t
		}
	}
	return wave[0]
}

func (e *Executor) runWave(ctx context.Context, wave []*router.Task, byID map[string]*router.Task, results map[string]*router.Task, threadID, originalRequest string) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, t := range wave {
		wg.Add(1)
		go func(t *router.Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					t.Fail(fmt.Sprintf("task panicked: %v", r))
					mu.Lock()
					results[t.TaskID] = t
					mu.Unlock()
				}
			}()
			e.runTask(ctx, t, byID, threadID, originalRequest)
			mu.Lock()
			results[t.TaskID] = t
			mu.Unlock()
		}(t)
	}
	wg.Wait()
}

func (e *Executor) runTask(ctx context.Context, t *router.Task, byID map[string]*router.Task, threadID, originalRequest string) {
	taskCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	t.Status = router.TaskInProgress
	start := time.Now()

	resp, err := e.caller.Invoke(taskCtx, worker.InvokeRequest{
		WorkerID:        t.WorkerID,
		TaskID:          t.TaskID,
		ThreadID:        threadID,
		OriginalRequest: originalRequest,
		Description:     t.Description,
		Preamble:        dependencyPreamble(t, byID),
	})

	e.metrics.RecordTimer("executor.task.duration", time.Since(start), "worker_id", t.WorkerID)

	if err != nil {
		e.classifyFailure(taskCtx, ctx, t, err)
		return
	}
	t.Complete(resp.Text)
}

func (e *Executor) classifyFailure(taskCtx, runCtx context.Context, t *router.Task, err error) {
	var ce *worker.ClassifiedError
	switch {
	case taskCtx.Err() == context.DeadlineExceeded:
		t.Fail("execution timed out")
	case runCtx.Err() != nil:
		t.Fail("cancelled")
	case asClassified(err, &ce):
		t.Fail(ce.Error())
	default:
		t.Fail(err.Error())
	}
}

func asClassified(err error, target **worker.ClassifiedError) bool {
	ce, ok := err.(*worker.ClassifiedError)
	if ok {
		*target = ce
	}
	return ok
}

// dependencyPreamble concatenates the results of t's direct dependencies
// into the context string passed to the worker (§4.4).
func dependencyPreamble(t *router.Task, byID map[string]*router.Task) string {
	if len(t.Dependencies) == 0 {
		return ""
	}
	var preamble string
	for _, dep := range t.Dependencies {
		dt, ok := byID[dep]
		if !ok || dt.Result == nil {
			continue
		}
		preamble += fmt.Sprintf("[%s]: %s\n", dep, *dt.Result)
	}
	return preamble
}

func settleCancelled(remaining map[string]*router.Task, results map[string]*router.Task) {
	for _, t := range remaining {
		if t.Status != router.TaskInProgress {
			t.Fail("cancelled")
		}
		results[t.TaskID] = t
	}
}
