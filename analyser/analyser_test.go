package analyser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premanandc/agent-fleet/llm"
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

func TestAnalyseInsufficientRequestsReplan(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: `{"verdict": "insufficient", "replan_strategy": "try a different worker"}`}}
	a := New(c, telemetry.NoopLogger{})

	v, err := a.Analyse(context.Background(), &router.RunContext{MaxReplans: 3, ReplanCount: 0})
	require.NoError(t, err)
	assert.True(t, v.NeedReplan)
	assert.Equal(t, "try a different worker", v.ReplanReason)
}

func TestAnalyseSufficientDoesNotReplan(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: `{"verdict": "sufficient"}`}}
	a := New(c, telemetry.NoopLogger{})

	v, err := a.Analyse(context.Background(), &router.RunContext{MaxReplans: 3})
	require.NoError(t, err)
	assert.False(t, v.NeedReplan)
}

func TestAnalyseGiveUpDoesNotReplan(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: `{"verdict": "give_up"}`}}
	a := New(c, telemetry.NoopLogger{})

	v, err := a.Analyse(context.Background(), &router.RunContext{MaxReplans: 3})
	require.NoError(t, err)
	assert.False(t, v.NeedReplan)
}

func TestAnalyseStopsAtBudgetWithoutCallingLLM(t *testing.T) {
	// If the LLM were consulted, this reply would request a replan.
	c := &fakeClient{resp: &llm.Response{Text: `{"verdict": "insufficient", "replan_strategy": "should never be used"}`}}
	a := New(c, telemetry.NoopLogger{})

	v, err := a.Analyse(context.Background(), &router.RunContext{MaxReplans: 2, ReplanCount: 2})
	require.NoError(t, err)
	assert.False(t, v.NeedReplan)
}

func TestAnalyseFailsForwardOnParseError(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: "garbage"}}
	a := New(c, telemetry.NoopLogger{})

	v, err := a.Analyse(context.Background(), &router.RunContext{MaxReplans: 3})
	require.NoError(t, err)
	assert.False(t, v.NeedReplan)
}

func TestAnalyseFailsForwardOnLLMError(t *testing.T) {
	c := &fakeClient{err: errors.New("provider down")}
	a := New(c, telemetry.NoopLogger{})

	v, err := a.Analyse(context.Background(), &router.RunContext{MaxReplans: 3})
	require.NoError(t, err)
	assert.False(t, v.NeedReplan)
}
