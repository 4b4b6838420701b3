// Package analyser implements the Replan Analyser (C8): decides, after each
// Execute phase, whether the accumulated results suffice or whether the
// driver should replan.
package analyser

import (
	"context"

	"github.com/premanandc/agent-fleet/llm"
	"github.com/premanandc/agent-fleet/llm/prompt"
	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/telemetry"
)

// Verdict is the Analyser's judgement of a completed Execute phase.
type Verdict struct {
	NeedReplan   bool
	ReplanReason string
}

// Analyser judges whether a run's accumulated task results answer the
// original request.
type Analyser interface {
	Analyse(ctx context.Context, rc *router.RunContext) (Verdict, error)
}

// LLMAnalyser delegates the sufficiency judgement to an llm.Client, but
// short-circuits deterministically once the replan budget is exhausted
// (§4.5: "the Analyser itself must stop requesting replans at the budget,
// independent of the driver's own defensive check").
type LLMAnalyser struct {
	Client llm.Client
	Logger telemetry.Logger
}

var _ Analyser = (*LLMAnalyser)(nil)

// New constructs an LLMAnalyser.
func New(client llm.Client, logger telemetry.Logger) *LLMAnalyser {
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	return &LLMAnalyser{Client: client, Logger: logger}
}

type analyseDecision struct {
	Verdict        string `json:"verdict"`
	ReplanStrategy string `json:"replan_strategy"`
}

// Analyse implements Analyser. Parse failure or LLM error fails forward:
// NeedReplan=false, so a broken Analyser call degrades to "aggregate what we
// have" rather than looping forever.
func (a *LLMAnalyser) Analyse(ctx context.Context, rc *router.RunContext) (Verdict, error) {
	if rc.ReplanCount >= rc.MaxReplans {
		return Verdict{NeedReplan: false}, nil
	}

	user, err := prompt.Analyse.Render(prompt.AnalyseVars{
		Request: rc.OriginalRequest,
		Tasks:   taskVars(rc.TaskResults),
	})
	if err != nil {
		a.Logger.Warn(ctx, "analyser render failed", "error", err)
		return Verdict{NeedReplan: false}, nil
	}

	resp, err := a.Client.Complete(ctx, &llm.Request{
		System:      prompt.Analyse.System,
		User:        user,
		Temperature: prompt.TemperatureAnalyse,
	})
	if err != nil {
		a.Logger.Warn(ctx, "analyser llm call failed", "error", err)
		return Verdict{NeedReplan: false}, nil
	}

	var decision analyseDecision
	if err := llm.UnmarshalJSON(resp.Text, &decision); err != nil {
		a.Logger.Warn(ctx, "analyser response parse failed", "error", err, "raw", resp.Text)
		return Verdict{NeedReplan: false}, nil
	}

	switch decision.Verdict {
	case "insufficient":
		return Verdict{NeedReplan: true, ReplanReason: decision.ReplanStrategy}, nil
	default: // "sufficient", "give_up", or anything unrecognised
		return Verdict{NeedReplan: false}, nil
	}
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
