package inmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premanandc/agent-fleet/aggregator"
	"github.com/premanandc/agent-fleet/analyser"
	"github.com/premanandc/agent-fleet/approval"
	"github.com/premanandc/agent-fleet/driver"
	"github.com/premanandc/agent-fleet/engine"
	"github.com/premanandc/agent-fleet/executor"
	"github.com/premanandc/agent-fleet/planner"
	"github.com/premanandc/agent-fleet/registry"
	"github.com/premanandc/agent-fleet/registry/store/memory"
	"github.com/premanandc/agent-fleet/router"
	stateinmem "github.com/premanandc/agent-fleet/state/inmem"
	"github.com/premanandc/agent-fleet/worker"
)

type fakeValidator struct{}

func (fakeValidator) Validate(ctx context.Context, req string) (router.Validation, error) {
	return router.Validation{Valid: true, Reason: "in scope"}, nil
}

type fakePlanner struct{}

func (fakePlanner) Plan(ctx context.Context, req planner.Request) (*router.Plan, error) {
	return &router.Plan{Strategy: router.StrategySequential, Tasks: []*router.Task{
		{TaskID: "t1", WorkerID: "w1"},
	}}, nil
}

type fakeAnalyser struct{}

func (fakeAnalyser) Analyse(ctx context.Context, rc *router.RunContext) (analyser.Verdict, error) {
	return analyser.Verdict{NeedReplan: false}, nil
}

type fakeAggregator struct{}

func (fakeAggregator) Aggregate(ctx context.Context, rc *router.RunContext) (string, error) {
	return "done", nil
}

type fakeCaller struct{}

func (fakeCaller) Invoke(ctx context.Context, req worker.InvokeRequest) (worker.InvokeResponse, error) {
	return worker.InvokeResponse{Text: "ok"}, nil
}

func newTestDriver() *driver.Driver {
	reg := memory.New()
	reg.Register(registry.Card{WorkerID: "w1"})
	return &driver.Driver{
		Validator:  fakeValidator{},
		Planner:    fakePlanner{},
		Gate:       approval.New(),
		Executor:   executor.New(fakeCaller{}, reg, executor.Options{}),
		Analyser:   fakeAnalyser{},
		Aggregator: fakeAggregator{},
		Registry:   reg,
		Store:      stateinmem.New(),
	}
}

func TestStartRunReachesDone(t *testing.T) {
	e := New(newTestDriver())
	h, err := e.StartRun(context.Background(), engine.RunRequest{RunID: "run-1", OriginalRequest: "do it", Mode: router.ModeAuto, MaxReplans: 3})
	require.NoError(t, err)

	rc, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, router.StatusDone, rc.Status)
}

func TestActiveRunsDropsSettledRun(t *testing.T) {
	e := New(newTestDriver())
	h, err := e.StartRun(context.Background(), engine.RunRequest{RunID: "run-2", OriginalRequest: "do it", Mode: router.ModeAuto, MaxReplans: 3})
	require.NoError(t, err)

	_, err = h.Wait(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, e.ActiveRuns(), "run-2")
}

func TestCancelStopsRunContextPropagation(t *testing.T) {
	e := New(newTestDriver())
	h, err := e.StartRun(context.Background(), engine.RunRequest{RunID: "run-3", OriginalRequest: "do it", Mode: router.ModeAuto, MaxReplans: 3})
	require.NoError(t, err)

	require.NoError(t, h.Cancel(context.Background()))
	_, err = h.Wait(context.Background())
	require.NoError(t, err)
}
