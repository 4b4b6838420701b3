// Package planner implements the Planner (C5): turns a request and the
// current registry snapshot into a typed Plan (dependency DAG of Tasks).
package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/premanandc/agent-fleet/llm"
	"github.com/premanandc/agent-fleet/llm/prompt"
	"github.com/premanandc/agent-fleet/registry"
	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/telemetry"
)

// planSchema constrains the shape of the LLM's plan JSON before it is
// trusted to drive concurrent execution: every task needs an id, a
// description, and a worker_id; dependencies, if present, must be strings.
// This is stricter than the fenced-JSON-then-unmarshal tolerance used by the
// validator and analyser call sites because a malformed plan doesn't just degrade a
// single text answer — it feeds the Executor's dependency graph.
var planSchema = mustCompilePlanSchema()

func mustCompilePlanSchema() *jsonschema.Schema {
	const schemaDoc = `{
		"type": "object",
		"required": ["strategy", "tasks"],
		"properties": {
			"strategy": {"type": "string"},
			"analysis": {"type": "string"},
			"tasks": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["id", "description", "worker_id"],
					"properties": {
						"id": {"type": "string"},
						"description": {"type": "string"},
						"worker_id": {"type": "string"},
						"dependencies": {"type": "array", "items": {"type": "string"}},
						"rationale": {"type": "string"}
					}
				}
			}
		}
	}`
	c := jsonschema.NewCompiler()
	if err := c.AddResource("plan.json", mustUnmarshalAny(schemaDoc)); err != nil {
		panic(err)
	}
	schema, err := c.Compile("plan.json")
	if err != nil {
		panic(err)
	}
	return schema
}

func mustUnmarshalAny(doc string) any {
	var v any
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		panic(err)
	}
	return v
}

// Planner produces a Plan from the request, the current worker registry, and
// (on replan) the prior run state.
type Planner interface {
	Plan(ctx context.Context, req Request) (*router.Plan, error)
}

// Request carries everything the Planner needs to build or rebuild a Plan.
type Request struct {
	OriginalRequest string
	Workers         []registry.Card
	PriorResults    []*router.Task
	ReplanReason    string
}

// LLMPlanner delegates plan synthesis to an llm.Client, then remaps the
// LLM's locally-scoped task ids to its own and drops tasks assigned to
// workers outside the registry snapshot.
type LLMPlanner struct {
	Client llm.Client
	Logger telemetry.Logger
}

var _ Planner = (*LLMPlanner)(nil)

// New constructs an LLMPlanner.
func New(client llm.Client, logger telemetry.Logger) *LLMPlanner {
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	return &LLMPlanner{Client: client, Logger: logger}
}

type planTaskWire struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	WorkerID     string   `json:"worker_id"`
	Dependencies []string `json:"dependencies"`
	Rationale    string   `json:"rationale"`
}

type planWire struct {
	Strategy string         `json:"strategy"`
	Analysis string         `json:"analysis"`
	Tasks    []planTaskWire `json:"tasks"`
}

// Plan implements Planner.
func (p *LLMPlanner) Plan(ctx context.Context, req Request) (*router.Plan, error) {
	workerByID := make(map[string]registry.Card, len(req.Workers))
	promptWorkers := make([]prompt.PlanWorker, 0, len(req.Workers))
	for _, w := range req.Workers {
		workerByID[w.WorkerID] = w
		promptWorkers = append(promptWorkers, prompt.PlanWorker{
			WorkerID:     w.WorkerID,
			Name:         w.Name,
			Description:  w.Description,
			Capabilities: w.Capabilities,
			Skills:       w.Skills,
		})
	}

	userMsg, err := prompt.Plan.Render(prompt.PlanVars{
		Request:      req.OriginalRequest,
		Workers:      promptWorkers,
		PriorResults: priorTaskVars(req.PriorResults),
		ReplanReason: req.ReplanReason,
	})
	if err != nil {
		return emptyPlan(fmt.Sprintf("render plan prompt: %v", err)), nil
	}

	resp, err := p.Client.Complete(ctx, &llm.Request{
		System:      prompt.Plan.System,
		User:        userMsg,
		Temperature: prompt.TemperaturePlan,
	})
	if err != nil {
		p.Logger.Warn(ctx, "planner llm call failed", "error", err)
		return emptyPlan(fmt.Sprintf("planning failed: %v", err)), nil
	}

	extracted := llm.ExtractJSON(resp.Text)
	var doc any
	if err := json.Unmarshal([]byte(extracted), &doc); err != nil {
		p.Logger.Warn(ctx, "planner response not valid JSON", "error", err, "raw", resp.Text)
		return emptyPlan(fmt.Sprintf("could not parse plan: %v", err)), nil
	}
	if err := planSchema.Validate(doc); err != nil {
		p.Logger.Warn(ctx, "planner response failed schema validation", "error", err, "raw", resp.Text)
		return emptyPlan(fmt.Sprintf("plan response did not match expected shape: %v", err)), nil
	}

	var wire planWire
	if err := json.Unmarshal([]byte(extracted), &wire); err != nil {
		p.Logger.Warn(ctx, "planner response parse failed", "error", err, "raw", resp.Text)
		return emptyPlan(fmt.Sprintf("could not parse plan: %v", err)), nil
	}

	return p.remap(ctx, wire, workerByID), nil
}

// remap assigns this planner's own task ids, drops tasks whose worker_id is
// not in the registry snapshot, and resolves dependency references: first by
// exact id match against surviving LLM-emitted ids, falling back to 1-based
// ordinal position in emission order when the LLM's own references don't
// resolve as ids. Unresolvable references are dropped with a warning rather
// than failing the whole plan.
type keptTask struct {
	wireID  string
	ordinal int
	wire    planTaskWire
	task    *router.Task
}

func (p *LLMPlanner) remap(ctx context.Context, wire planWire, workerByID map[string]registry.Card) *router.Plan {
	survivors := make([]*keptTask, 0, len(wire.Tasks))
	for i, wt := range wire.Tasks {
		w, ok := workerByID[wt.WorkerID]
		if !ok {
			p.Logger.Warn(ctx, "planner dropped task: unknown worker", "worker_id", wt.WorkerID, "task", wt.ID)
			continue
		}
		survivors = append(survivors, &keptTask{
			wireID:  wt.ID,
			ordinal: i + 1,
			wire:    wt,
			task: &router.Task{
				TaskID:      fmt.Sprintf("t%d", len(survivors)+1),
				Description: wt.Description,
				WorkerID:    w.WorkerID,
				WorkerName:  w.Name,
				Rationale:   wt.Rationale,
				Status:      router.TaskPending,
			},
		})
	}

	if len(survivors) == 0 {
		return emptyPlan("no task in the proposed plan referenced a registered worker")
	}

	byWireID := make(map[string]*router.Task, len(survivors))
	byOrdinal := make(map[int]*router.Task, len(survivors))
	for _, s := range survivors {
		byWireID[s.wireID] = s.task
		byOrdinal[s.ordinal] = s.task
	}

	for _, s := range survivors {
		for _, dep := range s.wire.Dependencies {
			if depTask, ok := byWireID[dep]; ok {
				s.task.Dependencies = append(s.task.Dependencies, depTask.TaskID)
				continue
			}
			if ord, err := parseOrdinal(dep); err == nil {
				if depTask, ok := byOrdinal[ord]; ok {
					p.Logger.Warn(ctx, "planner coerced dependency reference by ordinal", "task", s.task.TaskID, "ref", dep)
					s.task.Dependencies = append(s.task.Dependencies, depTask.TaskID)
					continue
				}
			}
			p.Logger.Warn(ctx, "planner dropped unresolvable dependency reference", "task", s.task.TaskID, "ref", dep)
		}
	}

	tasks := make([]*router.Task, len(survivors))
	for i, s := range survivors {
		tasks[i] = s.task
	}

	strategy := router.StrategySequential
	if wire.Strategy == string(router.StrategyParallel) {
		strategy = router.StrategyParallel
	}

	plan := &router.Plan{Strategy: strategy, Analysis: wire.Analysis, Tasks: tasks}
	if err := plan.Validate(); err != nil {
		p.Logger.Warn(ctx, "planner produced invalid plan, discarding", "error", err)
		return emptyPlan(fmt.Sprintf("plan failed validation: %v", err))
	}
	return plan
}

// parseOrdinal interprets a dependency reference the LLM emitted as a bare
// 1-based position (e.g. "2") rather than one of its own "id" values.
func parseOrdinal(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}
	return n, nil
}

func emptyPlan(analysis string) *router.Plan {
	return &router.Plan{Strategy: router.StrategySequential, Analysis: analysis, Tasks: nil}
}

func priorTaskVars(tasks []*router.Task) []prompt.PlanPriorTask {
	out := make([]prompt.PlanPriorTask, 0, len(tasks))
	for _, t := range tasks {
		var result, errText string
		if t.Result != nil {
			result = *t.Result
		}
		if t.Error != nil {
			errText = *t.Error
		}
		out = append(out, prompt.PlanPriorTask{
			TaskID:      t.TaskID,
			Description: t.Description,
			WorkerName:  t.WorkerName,
			Status:      string(t.Status),
			Result:      result,
			Error:       errText,
		})
	}
	return out
}
