// Package temporal implements engine.Engine on top of Temporal
// (go.temporal.io/sdk), the durable-execution backend required for
// interactive-mode runs to survive a process restart while suspended
// awaiting approval. Unlike the inmem engine, which just runs the Driver's
// Go code on a goroutine, a Temporal workflow must be deterministic: every
// side-effecting call (LLM, worker RPC, registry lookup) is pushed into an
// Activity, and the workflow function itself re-implements the same
// validate/plan/approval/execute/analyse/aggregate transition table as
// driver.Driver, but expressed as Temporal activity calls instead of direct
// Go calls. This is considerably smaller than the teacher's engine because
// this router has exactly one workflow shape, not a generated registry of
// per-agent workflows.
package temporal

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/premanandc/agent-fleet/aggregator"
	"github.com/premanandc/agent-fleet/analyser"
	"github.com/premanandc/agent-fleet/approval"
	"github.com/premanandc/agent-fleet/driver"
	"github.com/premanandc/agent-fleet/engine"
	"github.com/premanandc/agent-fleet/executor"
	"github.com/premanandc/agent-fleet/planner"
	"github.com/premanandc/agent-fleet/registry"
	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/validator"
)

const (
	workflowName = "RouterRunWorkflow"
	answerSignal = "router-approval-answer"
	defaultQueue = "router-runs"
)

// Options configures the Temporal engine adapter.
type Options struct {
	// Client is a pre-configured Temporal client. Required.
	Client client.Client
	// TaskQueue is the queue the engine's worker polls. Defaults to
	// "router-runs".
	TaskQueue string
	// DisableTracing skips installing the OTEL tracing interceptor on the
	// worker. Tracing is on by default so every workflow/activity execution
	// carries the same span lineage as the rest of C12's ambient telemetry
	// stack (§2, §9), including across a restart that resumes a suspended
	// interactive run.
	DisableTracing bool
	// TracerOptions customizes the OTEL tracing interceptor (span
	// attributes, filters). Only used when DisableTracing is false.
	TracerOptions temporalotel.TracerOptions
}

// Engine implements engine.Engine using Temporal as the durable execution
// backend for a single workflow shape (the router run).
type Engine struct {
	client    client.Client
	taskQueue string
	worker    worker.Worker
}

var _ engine.Engine = (*Engine)(nil)

// activities bundles the component calls a workflow needs as Temporal
// activities. Activities may perform I/O; the workflow function itself must
// not.
type activities struct {
	Validator  validator.Validator
	Planner    planner.Planner
	Executor   *executor.Executor
	Analyser   analyser.Analyser
	Aggregator aggregator.Aggregator
	Registry   registry.Store
}

// New constructs a Temporal Engine, registering the router workflow and its
// activities and starting a worker on opts.TaskQueue.
func New(opts Options, d *driver.Driver) (*Engine, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("temporal engine: Client is required")
	}
	queue := opts.TaskQueue
	if queue == "" {
		queue = defaultQueue
	}

	acts := &activities{
		Validator:  d.Validator,
		Planner:    d.Planner,
		Executor:   d.Executor,
		Analyser:   d.Analyser,
		Aggregator: d.Aggregator,
		Registry:   d.Registry,
	}

	workerOpts := worker.Options{}
	if !opts.DisableTracing {
		tracer, err := temporalotel.NewTracingInterceptor(opts.TracerOptions)
		if err != nil {
			return nil, fmt.Errorf("temporal engine: configure tracing interceptor: %w", err)
		}
		workerOpts.Interceptors = append(workerOpts.Interceptors, tracer)
	}

	w := worker.New(opts.Client, queue, workerOpts)
	w.RegisterWorkflowWithOptions(RunWorkflow, workflow.RegisterOptions{Name: workflowName})
	w.RegisterActivity(acts.ValidateActivity)
	w.RegisterActivity(acts.PlanActivity)
	w.RegisterActivity(acts.ExecuteActivity)
	w.RegisterActivity(acts.AnalyseActivity)
	w.RegisterActivity(acts.AggregateActivity)

	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("temporal engine: start worker: %w", err)
	}

	return &Engine{client: opts.Client, taskQueue: queue, worker: w}, nil
}

// StartRun implements engine.Engine.
func (e *Engine) StartRun(ctx context.Context, req engine.RunRequest) (engine.Handle, error) {
	run, err := e.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        req.RunID,
		TaskQueue: e.taskQueue,
	}, workflowName, req)
	if err != nil {
		return nil, fmt.Errorf("temporal engine: start workflow: %w", err)
	}
	return &handle{client: e.client, run: run}, nil
}

// ResumeRun implements engine.Engine by delivering the answer as a Temporal
// workflow signal to the already-running (suspended) workflow execution.
func (e *Engine) ResumeRun(ctx context.Context, runID, answer string) (engine.Handle, error) {
	if err := e.client.SignalWorkflow(ctx, runID, "", answerSignal, answer); err != nil {
		return nil, fmt.Errorf("temporal engine: signal resume: %w", err)
	}
	run := e.client.GetWorkflow(ctx, runID, "")
	return &handle{client: e.client, run: run}, nil
}

type handle struct {
	client client.Client
	run    client.WorkflowRun
}

func (h *handle) Wait(ctx context.Context) (*router.RunContext, error) {
	var rc router.RunContext
	if err := h.run.Get(ctx, &rc); err != nil {
		return nil, err
	}
	return &rc, nil
}

func (h *handle) Cancel(ctx context.Context) error {
	return h.client.CancelWorkflow(ctx, h.run.GetID(), h.run.GetRunID())
}

// RunWorkflow is the deterministic workflow function driving a run through
// the same phase sequence as driver.Driver.runFrom, expressed as activity
// calls plus a signal wait for interactive approval.
func RunWorkflow(ctx workflow.Context, req engine.RunRequest) (*router.RunContext, error) {
	ao := workflow.ActivityOptions{StartToCloseTimeout: 5 * time.Minute}
	ctx = workflow.WithActivityOptions(ctx, ao)

	rc := &router.RunContext{
		RunID:           req.RunID,
		OriginalRequest: req.OriginalRequest,
		Mode:            req.Mode,
		MaxReplans:      req.MaxReplans,
		Status:          router.StatusPending,
	}
	rc.AppendMessage(router.MessageRoleUser, req.OriginalRequest, workflow.Now(ctx))

	var validation router.Validation
	if err := workflow.ExecuteActivity(ctx, "ValidateActivity", rc.OriginalRequest).Get(ctx, &validation); err != nil {
		return nil, fmt.Errorf("validate activity: %w", err)
	}
	rc.Validation = &validation
	if !rc.Validation.Valid {
		rc.Status = router.StatusRejected
		rc.AppendMessage(router.MessageRoleAssistant, "Request rejected: "+rc.Validation.Reason, workflow.Now(ctx))
		return rc, nil
	}
	rc.Status = router.StatusValidated

	for {
		if err := workflow.ExecuteActivity(ctx, "PlanActivity", planActivityInput{
			OriginalRequest: rc.OriginalRequest,
			PriorResults:    rc.TaskResults,
			ReplanReason:    rc.ReplanReason,
		}).Get(ctx, &rc.Plan); err != nil {
			return nil, fmt.Errorf("plan activity: %w", err)
		}
		rc.Status = router.StatusPlanned

		if rc.Mode == router.ModeInteractive {
			rc.Status = router.StatusAwaitingApproval
			var answer string
			workflow.GetSignalChannel(ctx, answerSignal).Receive(ctx, &answer)
			decision := approvalDecision(answer)
			if !decision.approved {
				rc.ReplanReason = decision.reason
				rc.AppendMessage(router.MessageRoleAssistant, "Plan rejected: "+decision.reason, workflow.Now(ctx))
				continue
			}
		}

		var results []*router.Task
		if err := workflow.ExecuteActivity(ctx, "ExecuteActivity", executeActivityInput{
			Plan:            rc.Plan,
			PriorResults:    rc.TaskResults,
			RunID:           rc.RunID,
			OriginalRequest: rc.OriginalRequest,
		}).Get(ctx, &results); err != nil {
			return nil, fmt.Errorf("execute activity: %w", err)
		}
		rc.TaskResults = results

		var verdict analyser.Verdict
		if err := workflow.ExecuteActivity(ctx, "AnalyseActivity", rc).Get(ctx, &verdict); err != nil {
			return nil, fmt.Errorf("analyse activity: %w", err)
		}
		if verdict.NeedReplan && rc.ReplanCount < rc.MaxReplans {
			rc.ReplanCount++
			rc.ReplanReason = verdict.ReplanReason
			continue
		}
		break
	}

	var final string
	if err := workflow.ExecuteActivity(ctx, "AggregateActivity", rc).Get(ctx, &final); err != nil {
		return nil, fmt.Errorf("aggregate activity: %w", err)
	}
	rc.FinalResponse = &final
	rc.AppendMessage(router.MessageRoleAssistant, final, workflow.Now(ctx))
	rc.Status = router.StatusDone
	return rc, nil
}

type planActivityInput struct {
	OriginalRequest string
	PriorResults    []*router.Task
	ReplanReason    string
}

type executeActivityInput struct {
	Plan            *router.Plan
	PriorResults    []*router.Task
	RunID           string
	OriginalRequest string
}

type approvalResult struct {
	approved bool
	reason   string
}

// approvalDecision mirrors approval.Gate.Resume's answer vocabulary (§4.3)
// without importing approval's Decision type, since the workflow only needs
// the two booleans/strings, not the Suspend field.
func approvalDecision(answer string) approvalResult {
	g := approval.Gate{}
	d := g.Resume(answer)
	return approvalResult{approved: d.Approved, reason: d.ReplanReason}
}

func (a *activities) ValidateActivity(ctx context.Context, originalRequest string) (router.Validation, error) {
	return a.Validator.Validate(ctx, originalRequest)
}

func (a *activities) PlanActivity(ctx context.Context, in planActivityInput) (*router.Plan, error) {
	workers, err := a.Registry.ListWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return a.Planner.Plan(ctx, planner.Request{
		OriginalRequest: in.OriginalRequest,
		Workers:         workers,
		PriorResults:    in.PriorResults,
		ReplanReason:    in.ReplanReason,
	})
}

func (a *activities) ExecuteActivity(ctx context.Context, in executeActivityInput) ([]*router.Task, error) {
	results, err := a.Executor.Execute(ctx, in.Plan, in.PriorResults, in.RunID, in.OriginalRequest)
	if err != nil {
		return nil, err
	}
	planOrder := make([]string, 0, len(in.Plan.Tasks))
	for _, t := range in.Plan.Tasks {
		planOrder = append(planOrder, t.TaskID)
	}
	return router.MergeTaskResults(in.PriorResults, results, planOrder), nil
}

func (a *activities) AnalyseActivity(ctx context.Context, rc *router.RunContext) (analyser.Verdict, error) {
	return a.Analyser.Analyse(ctx, rc)
}

func (a *activities) AggregateActivity(ctx context.Context, rc *router.RunContext) (string, error) {
	return a.Aggregator.Aggregate(ctx, rc)
}
