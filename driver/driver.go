// Package driver implements the State Machine Driver (C11): the bounded,
// re-entrant state machine that sequences every other component through a
// single run (§4.7).
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/premanandc/agent-fleet/aggregator"
	"github.com/premanandc/agent-fleet/analyser"
	"github.com/premanandc/agent-fleet/approval"
	"github.com/premanandc/agent-fleet/executor"
	"github.com/premanandc/agent-fleet/planner"
	"github.com/premanandc/agent-fleet/registry"
	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/state"
	"github.com/premanandc/agent-fleet/telemetry"
	"github.com/premanandc/agent-fleet/validator"
)

// DefaultMaxReplans is used when a Start caller does not set one (§9).
const DefaultMaxReplans = 3

// NewRunID generates a fresh globally-unique run identifier for callers that
// don't already have one of their own (e.g. a caller-supplied correlation
// id from an upstream request).
func NewRunID() string { return uuid.NewString() }

// Clock supplies the current time, overridable in tests.
type Clock func() time.Time

// Driver sequences a RunContext through validate -> plan -> approval ->
// execute -> analyse, looping back to plan on replan up to MaxReplans, then
// aggregate.
type Driver struct {
	Validator  validator.Validator
	Planner    planner.Planner
	Gate       *approval.Gate
	Executor   *executor.Executor
	Analyser   analyser.Analyser
	Aggregator aggregator.Aggregator
	Registry   registry.Store
	Store      state.Store
	Logger     telemetry.Logger
	Now        Clock
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Driver) logger() telemetry.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return telemetry.NoopLogger{}
}

// Start begins a new run: validate, then either reject or continue into the
// plan/approval/execute/analyse cycle. If the run suspends for interactive
// approval, Start returns with rc.Status == StatusAwaitingApproval and the
// caller is expected to have persisted rc to the Store (Start itself does
// the persist before returning).
func (d *Driver) Start(ctx context.Context, runID, originalRequest string, mode router.Mode, maxReplans int) (*router.RunContext, error) {
	if maxReplans <= 0 {
		maxReplans = DefaultMaxReplans
	}
	rc := &router.RunContext{
		RunID:           runID,
		OriginalRequest: originalRequest,
		Mode:            mode,
		MaxReplans:      maxReplans,
		Status:          router.StatusPending,
	}
	rc.AppendMessage(router.MessageRoleUser, originalRequest, d.now())

	return d.runFrom(ctx, rc, stepValidate)
}

// Resume continues a suspended interactive-mode run with an external answer
// to the pending approval request.
func (d *Driver) Resume(ctx context.Context, runID, answer string) (*router.RunContext, error) {
	rc, err := d.Store.Load(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("driver resume: %w", err)
	}
	if rc.Status != router.StatusAwaitingApproval {
		return nil, fmt.Errorf("driver resume: run %q is not awaiting approval (status=%s)", runID, rc.Status)
	}

	decision := d.Gate.Resume(answer)
	if !decision.Approved {
		rc.ReplanReason = decision.ReplanReason
		rc.AppendMessage(router.MessageRoleAssistant, "Plan rejected: "+decision.ReplanReason, d.now())
		return d.runFrom(ctx, rc, stepPlan)
	}
	return d.runFrom(ctx, rc, stepExecute)
}

// step identifies the phase to run next within runFrom's loop.
type step int

const (
	stepValidate step = iota
	stepPlan
	stepExecute
	stepAnalyse
)

// runFrom drives rc through phases starting at start, persisting to the
// Store at every phase boundary, suspension, and terminal boundary, until
// the run is Frozen or suspended awaiting approval.
func (d *Driver) runFrom(ctx context.Context, rc *router.RunContext, start step) (*router.RunContext, error) {
	next := start
	for entered := false; ; entered = true {
		if ctx.Err() != nil {
			rc.Status = router.StatusFailed
			rc.AppendMessage(router.MessageRoleAssistant, "Run cancelled.", d.now())
			// The run's own ctx is already cancelled; the final snapshot
			// must still be written.
			return rc, d.persist(context.WithoutCancel(ctx), rc)
		}
		if entered {
			if err := d.persist(ctx, rc); err != nil {
				return rc, err
			}
		}

		switch next {
		case stepValidate:
			if err := d.validate(ctx, rc); err != nil {
				return rc, err
			}
			if rc.Status == router.StatusRejected {
				return rc, d.persist(ctx, rc)
			}
			next = stepPlan

		case stepPlan:
			if err := d.plan(ctx, rc); err != nil {
				return rc, err
			}
			if rc.Mode == router.ModeAuto {
				next = stepExecute
				continue
			}
			decision := d.Gate.Review(rc, d.now())
			if decision.Suspend {
				rc.Status = router.StatusAwaitingApproval
				return rc, d.persist(ctx, rc)
			}
			next = stepExecute

		case stepExecute:
			if err := d.execute(ctx, rc); err != nil {
				return rc, err
			}
			next = stepAnalyse

		case stepAnalyse:
			verdict, err := d.Analyser.Analyse(ctx, rc)
			if err != nil {
				return rc, fmt.Errorf("driver analyse: %w", err)
			}
			if verdict.NeedReplan {
				if rc.ReplanCount >= rc.MaxReplans {
					// Defensive bound: the Analyser should already have
					// refused to request a replan at the budget (§4.5), but
					// the driver never trusts a single check alone.
					d.logger().Error(ctx, "analyser requested replan past budget", "run_id", rc.RunID)
					return rc, d.aggregate(ctx, rc)
				}
				rc.ReplanCount++
				rc.ReplanReason = verdict.ReplanReason
				next = stepPlan
				continue
			}
			return rc, d.aggregate(ctx, rc)
		}
	}
}

func (d *Driver) validate(ctx context.Context, rc *router.RunContext) error {
	v, err := d.Validator.Validate(ctx, rc.OriginalRequest)
	if err != nil {
		return fmt.Errorf("driver validate: %w", err)
	}
	rc.Validation = &v
	if !v.Valid {
		rc.Status = router.StatusRejected
		rc.AppendMessage(router.MessageRoleAssistant, "Request rejected: "+v.Reason, d.now())
		return nil
	}
	rc.Status = router.StatusValidated
	return nil
}

func (d *Driver) plan(ctx context.Context, rc *router.RunContext) error {
	workers, err := d.Registry.ListWorkers(ctx)
	if err != nil {
		return fmt.Errorf("driver plan: list workers: %w", err)
	}
	plan, err := d.Planner.Plan(ctx, planner.Request{
		OriginalRequest: rc.OriginalRequest,
		Workers:         workers,
		PriorResults:    rc.TaskResults,
		ReplanReason:    rc.ReplanReason,
	})
	if err != nil {
		return fmt.Errorf("driver plan: %w", err)
	}
	rc.Plan = plan
	rc.Status = router.StatusPlanned
	return nil
}

func (d *Driver) execute(ctx context.Context, rc *router.RunContext) error {
	rc.Status = router.StatusExecuting
	if err := d.persist(ctx, rc); err != nil {
		return err
	}
	results, err := d.Executor.Execute(ctx, rc.Plan, rc.TaskResults, rc.RunID, rc.OriginalRequest)
	if err != nil {
		return fmt.Errorf("driver execute: %w", err)
	}
	rc.TaskResults = router.MergeTaskResults(rc.TaskResults, results, planOrder(rc.Plan))
	return nil
}

// planOrder extracts a plan's task ids in their literal declared order, for
// ordering newly-seen ids in a router.MergeTaskResults call.
func planOrder(plan *router.Plan) []string {
	if plan == nil {
		return nil
	}
	ids := make([]string, 0, len(plan.Tasks))
	for _, t := range plan.Tasks {
		ids = append(ids, t.TaskID)
	}
	return ids
}

func (d *Driver) aggregate(ctx context.Context, rc *router.RunContext) error {
	text, err := d.Aggregator.Aggregate(ctx, rc)
	if err != nil {
		return fmt.Errorf("driver aggregate: %w", err)
	}
	rc.FinalResponse = &text
	rc.AppendMessage(router.MessageRoleAssistant, text, d.now())
	rc.Status = router.StatusDone
	return d.persist(ctx, rc)
}

func (d *Driver) persist(ctx context.Context, rc *router.RunContext) error {
	if d.Store == nil {
		return nil
	}
	if err := d.Store.Save(ctx, rc.RunID, rc); err != nil {
		return fmt.Errorf("driver persist: %w", err)
	}
	return nil
}
