// Package router defines the data model shared by every orchestration
// component: RunContext, Plan, Task, and WorkerCapability. The types here are
// deliberately thin — a closed tagged union of local shapes plus enums —
// so that the driver, executor, and friends can all agree on the same
// vocabulary without importing each other.
package router

import "time"

// Mode selects how a run handles the planner's proposed Plan before
// execution.
type Mode string

const (
	// ModeAuto bypasses the approval gate entirely.
	ModeAuto Mode = "auto"
	// ModeInteractive suspends the run and waits for an external decision.
	ModeInteractive Mode = "interactive"
	// ModeReview auto-approves but records the rendered plan to the message log.
	ModeReview Mode = "review"
)

// Status is the lifecycle state of a RunContext.
type Status string

const (
	StatusPending           Status = "pending"
	StatusValidated         Status = "validated"
	StatusRejected          Status = "rejected"
	StatusPlanned           Status = "planned"
	StatusAwaitingApproval  Status = "awaiting_approval"
	StatusExecuting         Status = "executing"
	StatusAnalysed          Status = "analysed"
	StatusAggregated        Status = "aggregated"
	StatusDone              Status = "done"
	StatusFailed            Status = "failed"
)

// TaskStatus is the lifecycle state of a single Task within a Plan.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Strategy is the dispatch discipline the Executor uses for a Plan.
type Strategy string

const (
	StrategyParallel   Strategy = "parallel"
	StrategySequential Strategy = "sequential"
)

// MessageRole identifies the speaker of a Message in the run's message log.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is a single entry in a RunContext's message_log: either the
// verbatim user turn or a synthesised assistant reply (rejection artifact,
// rendered plan, or final response).
type Message struct {
	Role    MessageRole
	Content string
	At      time.Time
}

// Validation is the Validator's (C6) classification of the original request.
type Validation struct {
	Valid  bool
	Reason string
}

// WorkerCapability is the capability card the Registry (C2) returns for a
// discoverable worker.
type WorkerCapability struct {
	WorkerID     string
	Name         string
	Description  string
	Capabilities []string
	Skills       []string
}

// Task is a single node in a Plan's dependency DAG.
type Task struct {
	TaskID       string
	Description  string
	WorkerID     string
	WorkerName   string
	Dependencies []string
	Rationale    string
	Status       TaskStatus
	Result       *string
	Error        *string
}

// Completed reports whether the task finished successfully.
func (t *Task) Completed() bool { return t.Status == TaskCompleted }

// Failed reports whether the task finished with an error.
func (t *Task) Failed() bool { return t.Status == TaskFailed }

// complete transitions the task to TaskCompleted, enforcing invariant 1
// (result set iff completed).
func (t *Task) complete(result string) {
	t.Status = TaskCompleted
	t.Result = &result
	t.Error = nil
}

// fail transitions the task to TaskFailed, enforcing invariant 1
// (error set iff failed).
func (t *Task) fail(reason string) {
	t.Status = TaskFailed
	t.Error = &reason
	t.Result = nil
}

// Complete transitions the task to TaskCompleted with the given result text.
func (t *Task) Complete(result string) { t.complete(result) }

// Fail transitions the task to TaskFailed with the given error reason.
func (t *Task) Fail(reason string) { t.fail(reason) }

// Plan is the immutable DAG of Tasks produced by the Planner (C5). A replan
// always creates a new Plan value; Plans are never mutated in place once
// returned by the Planner (the Executor runs copies of the plan's Tasks and
// records status/result/error on those copies, leaving the Plan's own Tasks
// untouched).
type Plan struct {
	Strategy  Strategy
	Analysis  string
	Tasks     []*Task
	CreatedAt time.Time
}

// TaskByID returns the task with the given id, or nil if not present.
func (p *Plan) TaskByID(id string) *Task {
	if p == nil {
		return nil
	}
	for _, t := range p.Tasks {
		if t.TaskID == id {
			return t
		}
	}
	return nil
}

// Validate checks Plan invariants 2 and 3: every dependency reference must
// resolve to another task in the same plan, and the dependency graph must be
// acyclic.
func (p *Plan) Validate() error {
	if p == nil {
		return nil
	}
	ids := make(map[string]struct{}, len(p.Tasks))
	for _, t := range p.Tasks {
		ids[t.TaskID] = struct{}{}
	}
	for _, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			if _, ok := ids[dep]; !ok {
				return &ErrDanglingDependency{TaskID: t.TaskID, Dependency: dep}
			}
		}
	}
	return p.checkAcyclic()
}

func (p *Plan) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(p.Tasks))
	var visit func(id string, stack []string) error
	visit = func(id string, stack []string) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return &ErrCyclicPlan{Cycle: append(append([]string{}, stack...), id)}
		}
		color[id] = gray
		stack = append(stack, id)
		t := p.TaskByID(id)
		if t != nil {
			for _, dep := range t.Dependencies {
				if err := visit(dep, stack); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}
	for _, t := range p.Tasks {
		if color[t.TaskID] == white {
			if err := visit(t.TaskID, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunContext is created per user request and mutated only by the driver
// between phases (invariant: the Executor mutates its own local task map and
// hands it back atomically at phase end — it never reaches into RunContext
// directly).
type RunContext struct {
	RunID           string
	OriginalRequest string
	Mode            Mode
	MaxReplans      int
	ReplanCount     int
	Status          Status
	Validation      *Validation
	Plan            *Plan
	TaskResults     []*Task
	FinalResponse   *string
	MessageLog      []Message
	ReplanReason    string
}

// Frozen reports whether the run has reached a terminal status.
func (r *RunContext) Frozen() bool {
	return r.Status == StatusDone || r.Status == StatusFailed
}

// AppendMessage appends an entry to the run's message log.
func (r *RunContext) AppendMessage(role MessageRole, content string, at time.Time) {
	r.MessageLog = append(r.MessageLog, Message{Role: role, Content: content, At: at})
}

// TaskResultMap returns the run's current task results indexed by task id.
func (r *RunContext) TaskResultMap() map[string]*Task {
	m := make(map[string]*Task, len(r.TaskResults))
	for _, t := range r.TaskResults {
		m[t.TaskID] = t
	}
	return m
}

// MergeTaskResults folds current into prior, keyed by TaskID, and returns the
// union in a deterministic order: prior entries keep their original
// position (updated in place where current has a same-id replacement), then
// any id in current that prior didn't have is appended in planOrder.
//
// This is the task_results accumulation contract (§3: "ordered sequence of
// Task, append-on-execute"; §4.4: Execute's output is always
// prior_task_results ∪ newly executed tasks). A replanned cycle's Planner
// assigns task ids the same way every time (t1, t2, ...), so a task id can
// collide across cycles; current always wins that collision since it is the
// newer, re-executed result.
func MergeTaskResults(prior []*Task, current map[string]*Task, planOrder []string) []*Task {
	merged := make(map[string]*Task, len(prior)+len(current))
	order := make([]string, 0, len(prior)+len(current))

	for _, t := range prior {
		if _, ok := merged[t.TaskID]; !ok {
			order = append(order, t.TaskID)
		}
		merged[t.TaskID] = t
	}
	for id, t := range current {
		if _, ok := merged[id]; ok {
			merged[id] = t
		}
	}
	for _, id := range planOrder {
		t, ok := current[id]
		if !ok {
			continue
		}
		if _, exists := merged[id]; !exists {
			order = append(order, id)
		}
		merged[id] = t
	}

	out := make([]*Task, 0, len(order))
	for _, id := range order {
		out = append(out, merged[id])
	}
	return out
}
