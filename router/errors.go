package router

import "fmt"

// ErrDanglingDependency is returned by Plan.Validate when a task references
// a dependency that does not exist in the same plan (invariant 2).
type ErrDanglingDependency struct {
	TaskID     string
	Dependency string
}

func (e *ErrDanglingDependency) Error() string {
	return fmt.Sprintf("task %q depends on unknown task %q", e.TaskID, e.Dependency)
}

// ErrCyclicPlan is returned by Plan.Validate when the dependency graph
// contains a cycle (invariant 3).
type ErrCyclicPlan struct {
	Cycle []string
}

func (e *ErrCyclicPlan) Error() string {
	return fmt.Sprintf("plan dependency graph is cyclic: %v", e.Cycle)
}

// Sentinel errors for the §7 error taxonomy that are not task-scoped (those
// are represented as Task.Error strings per the data model's invariant 1).
var (
	// ErrOutOfScope marks a request the Validator rejected (taxonomy #1).
	ErrOutOfScope = fmt.Errorf("request is out of scope")

	// ErrReplanBudgetExhausted marks the driver's defensive replan-bound
	// assertion (§4.7, §9) tripping even though the Analyser should have
	// already stopped requesting replans.
	ErrReplanBudgetExhausted = fmt.Errorf("replan budget exhausted")

	// ErrRunCancelled marks a run that ended because of external
	// cancellation (taxonomy #8).
	ErrRunCancelled = fmt.Errorf("run cancelled")
)
