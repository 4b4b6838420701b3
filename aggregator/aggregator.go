// Package aggregator implements the Aggregator (C10): synthesises the
// run's final user-facing response from its accumulated task results.
package aggregator

import (
	"context"
	"fmt"
	"strings"

	"github.com/premanandc/agent-fleet/llm"
	"github.com/premanandc/agent-fleet/llm/prompt"
	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/telemetry"
)

// Aggregator produces the final response text for a run.
type Aggregator interface {
	Aggregate(ctx context.Context, rc *router.RunContext) (string, error)
}

// LLMAggregator synthesises the final response via an llm.Client, falling
// back to a deterministic concatenation of task results if the LLM call
// fails (§4.6: aggregation must never block a run from finishing).
type LLMAggregator struct {
	Client llm.Client
	Logger telemetry.Logger
}

var _ Aggregator = (*LLMAggregator)(nil)

// New constructs an LLMAggregator.
func New(client llm.Client, logger telemetry.Logger) *LLMAggregator {
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	return &LLMAggregator{Client: client, Logger: logger}
}

// Aggregate implements Aggregator.
func (a *LLMAggregator) Aggregate(ctx context.Context, rc *router.RunContext) (string, error) {
	vars := taskVars(rc.TaskResults)

	user, err := prompt.Aggregate.Render(prompt.AggregateVars{Request: rc.OriginalRequest, Tasks: vars})
	if err != nil {
		a.Logger.Warn(ctx, "aggregator render failed, using fallback", "error", err)
		return withFooter(fallback(vars), vars), nil
	}

	resp, err := a.Client.Complete(ctx, &llm.Request{
		System:      prompt.Aggregate.System,
		User:        user,
		Temperature: prompt.TemperatureAggregate,
	})
	if err != nil {
		a.Logger.Warn(ctx, "aggregator llm call failed, using fallback", "error", err)
		return withFooter(fallback(vars), vars), nil
	}

	return withFooter(resp.Text, vars), nil
}

// withFooter appends a failed/total count note when any task failed, so the
// caller never has to infer completeness from prose alone.
func withFooter(body string, vars []prompt.PlanPriorTask) string {
	failed := 0
	for _, v := range vars {
		if v.Status == string(router.TaskFailed) {
			failed++
		}
	}
	if failed == 0 {
		return body
	}
	return fmt.Sprintf("%s\n\n(%d of %d tasks did not complete.)", body, failed, len(vars))
}

// fallback deterministically concatenates each task's description and
// outcome, used when the LLM call itself cannot be trusted to run.
func fallback(vars []prompt.PlanPriorTask) string {
	var b strings.Builder
	b.WriteString("Results:\n")
	for _, v := range vars {
		if v.Error != "" {
			fmt.Fprintf(&b, "- %s: failed (%s)\n", v.Description, v.Error)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", v.Description, v.Result)
	}
	return b.String()
}

func taskVars(tasks []*router.Task) []prompt.PlanPriorTask {
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
