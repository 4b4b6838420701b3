package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premanandc/agent-fleet/llm"
	"github.com/premanandc/agent-fleet/registry"
	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/telemetry"
)

type fakeClient struct {
	resp *llm.Response
	err  error
}

func (f *fakeClient) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return f.resp, f.err
}

var oneWorker = []registry.Card{{WorkerID: "w1", Name: "Worker One"}}

func TestPlanHappyPath(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: `{"strategy": "sequential", "analysis": "simple",
		"tasks": [{"id": "a", "description": "do thing", "worker_id": "w1", "dependencies": [], "rationale": "only choice"}]}`}}
	p := New(c, telemetry.NoopLogger{})

	plan, err := p.Plan(context.Background(), Request{OriginalRequest: "do thing", Workers: oneWorker})
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, "t1", plan.Tasks[0].TaskID)
	assert.Equal(t, "w1", plan.Tasks[0].WorkerID)
}

func TestPlanDropsTaskWithUnknownWorker(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: `{"strategy": "parallel", "analysis": "x",
		"tasks": [
			{"id": "a", "description": "known", "worker_id": "w1", "dependencies": []},
			{"id": "b", "description": "unknown", "worker_id": "ghost", "dependencies": []}
		]}`}}
	p := New(c, telemetry.NoopLogger{})

	plan, err := p.Plan(context.Background(), Request{OriginalRequest: "x", Workers: oneWorker})
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, "w1", plan.Tasks[0].WorkerID)
}

func TestPlanEmptyWhenNoTaskSurvives(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: `{"strategy": "sequential", "analysis": "x",
		"tasks": [{"id": "a", "description": "unknown", "worker_id": "ghost", "dependencies": []}]}`}}
	p := New(c, telemetry.NoopLogger{})

	plan, err := p.Plan(context.Background(), Request{OriginalRequest: "x", Workers: oneWorker})
	require.NoError(t, err)
	assert.Empty(t, plan.Tasks)
	assert.NotEmpty(t, plan.Analysis)
}

func TestPlanCoercesOrdinalDependency(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: `{"strategy": "sequential", "analysis": "x",
		"tasks": [
			{"id": "first", "description": "step one", "worker_id": "w1", "dependencies": []},
			{"id": "second", "description": "step two", "worker_id": "w1", "dependencies": ["1"]}
		]}`}}
	p := New(c, telemetry.NoopLogger{})

	plan, err := p.Plan(context.Background(), Request{OriginalRequest: "x", Workers: oneWorker})
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 2)
	assert.Equal(t, []string{"t1"}, plan.Tasks[1].Dependencies)
}

func TestPlanEmptyOnMalformedJSON(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: "not json"}}
	p := New(c, telemetry.NoopLogger{})

	plan, err := p.Plan(context.Background(), Request{OriginalRequest: "x", Workers: oneWorker})
	require.NoError(t, err)
	assert.Empty(t, plan.Tasks)
	assert.NotEmpty(t, plan.Analysis)
}

func TestPlanEmptyOnSchemaViolation(t *testing.T) {
	// "tasks" entries missing the required "worker_id" field fail schema
	// validation before the typed unmarshal even runs.
	c := &fakeClient{resp: &llm.Response{Text: `{"strategy": "sequential", "analysis": "x",
		"tasks": [{"id": "a", "description": "missing worker"}]}`}}
	p := New(c, telemetry.NoopLogger{})

	plan, err := p.Plan(context.Background(), Request{OriginalRequest: "x", Workers: oneWorker})
	require.NoError(t, err)
	assert.Empty(t, plan.Tasks)
}

func TestPlanEmptyOnLLMError(t *testing.T) {
	c := &fakeClient{err: errors.New("timeout")}
	p := New(c, telemetry.NoopLogger{})

	plan, err := p.Plan(context.Background(), Request{OriginalRequest: "x", Workers: oneWorker})
	require.NoError(t, err)
	assert.Empty(t, plan.Tasks)
}

func TestPlanParallelStrategy(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: `{"strategy": "parallel", "analysis": "x",
		"tasks": [{"id": "a", "description": "d", "worker_id": "w1"}]}`}}
	p := New(c, telemetry.NoopLogger{})

	plan, err := p.Plan(context.Background(), Request{OriginalRequest: "x", Workers: oneWorker})
	require.NoError(t, err)
	assert.Equal(t, router.StrategyParallel, plan.Strategy)
}
