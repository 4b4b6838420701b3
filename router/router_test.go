package router

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskCompleteFailExclusivity(t *testing.T) {
	task := &Task{TaskID: "t1", Status: TaskPending}

	task.Complete("ok")
	assert.True(t, task.Completed())
	assert.False(t, task.Failed())
	require.NotNil(t, task.Result)
	assert.Equal(t, "ok", *task.Result)
	assert.Nil(t, task.Error)

	task.Fail("boom")
	assert.True(t, task.Failed())
	assert.False(t, task.Completed())
	require.NotNil(t, task.Error)
	assert.Equal(t, "boom", *task.Error)
	assert.Nil(t, task.Result)
}

func TestPlanValidateDanglingDependency(t *testing.T) {
	p := &Plan{Tasks: []*Task{
		{TaskID: "a", Dependencies: []string{"missing"}},
	}}
	err := p.Validate()
	require.Error(t, err)
	var dangling *ErrDanglingDependency
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, "a", dangling.TaskID)
	assert.Equal(t, "missing", dangling.Dependency)
}

func TestPlanValidateCycle(t *testing.T) {
	p := &Plan{Tasks: []*Task{
		{TaskID: "a", Dependencies: []string{"b"}},
		{TaskID: "b", Dependencies: []string{"a"}},
	}}
	err := p.Validate()
	require.Error(t, err)
	var cyclic *ErrCyclicPlan
	require.ErrorAs(t, err, &cyclic)
}

func TestPlanValidateAcyclicPasses(t *testing.T) {
	p := &Plan{Tasks: []*Task{
		{TaskID: "a"},
		{TaskID: "b", Dependencies: []string{"a"}},
		{TaskID: "c", Dependencies: []string{"a", "b"}},
	}}
	assert.NoError(t, p.Validate())
}

// genDAG builds a Plan whose n tasks only ever depend on earlier-indexed
// tasks, which by construction can never contain a cycle.
func genDAG(n int) *Plan {
	tasks := make([]*Task, n)
	for i := 0; i < n; i++ {
		var deps []string
		for j := 0; j < i; j++ {
			if (i+j)%2 == 0 {
				deps = append(deps, fmt.Sprintf("t%d", j))
			}
		}
		tasks[i] = &Task{TaskID: fmt.Sprintf("t%d", i), Dependencies: deps}
	}
	return &Plan{Tasks: tasks}
}

func TestPlanAcyclicityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a plan whose tasks only depend on earlier tasks is always acyclic", prop.ForAll(
		func(n int) bool {
			p := genDAG(n)
			return p.Validate() == nil
		},
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}

func TestReplanCountBoundProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("replan count never exceeds max replans after any number of increments", prop.ForAll(
		func(maxReplans, increments int) bool {
			rc := &RunContext{MaxReplans: maxReplans}
			for i := 0; i < increments; i++ {
				if rc.ReplanCount >= rc.MaxReplans {
					break
				}
				rc.ReplanCount++
			}
			return rc.ReplanCount >= 0 && rc.ReplanCount <= rc.MaxReplans
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

func TestRunContextFrozen(t *testing.T) {
	rc := &RunContext{Status: StatusExecuting}
	assert.False(t, rc.Frozen())
	rc.Status = StatusDone
	assert.True(t, rc.Frozen())
	rc.Status = StatusFailed
	assert.True(t, rc.Frozen())
}

func TestTaskResultMap(t *testing.T) {
	rc := &RunContext{TaskResults: []*Task{
		{TaskID: "a"}, {TaskID: "b"},
	}}
	m := rc.TaskResultMap()
	assert.Len(t, m, 2)
	assert.Contains(t, m, "a")
	assert.Contains(t, m, "b")
}
