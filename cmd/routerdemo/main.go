// Command routerdemo wires the router kernel together with in-memory
// backends and a stub LLM client, then drives a single auto-mode run end to
// end. It exists to exercise the wiring, not as a production entry point —
// there is no CLI flag surface or HTTP server here (§9 Non-goals).
package main

import (
	"context"
	"fmt"

	"github.com/premanandc/agent-fleet/aggregator"
	"github.com/premanandc/agent-fleet/analyser"
	"github.com/premanandc/agent-fleet/approval"
	"github.com/premanandc/agent-fleet/driver"
	"github.com/premanandc/agent-fleet/executor"
	"github.com/premanandc/agent-fleet/llm"
	"github.com/premanandc/agent-fleet/planner"
	"github.com/premanandc/agent-fleet/registry"
	"github.com/premanandc/agent-fleet/registry/store/memory"
	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/state/inmem"
	"github.com/premanandc/agent-fleet/telemetry"
	"github.com/premanandc/agent-fleet/validator"
	"github.com/premanandc/agent-fleet/worker"
)

// stubLLM answers each call site with a fixed canned reply (validation,
// a one-task plan, a "sufficient" verdict, or a summary), chosen by the
// request's temperature and call count rather than its System/User content,
// so the demo needs no API key. Real
// deployments use llm/providers/{anthropic,openai,bedrock} instead.
type stubLLM struct{ call int }

func (s *stubLLM) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	s.call++
	switch {
	case req.Temperature == 0.3 && s.call == 1: // validate
		return &llm.Response{Text: `{"is_valid": true, "reasoning": "in scope"}`}, nil
	case req.Temperature == 0.5: // plan
		return &llm.Response{Text: `{"strategy": "sequential", "analysis": "one step suffices",
			"tasks": [{"id": "1", "description": "summarize the request", "worker_id": "summarizer", "dependencies": [], "rationale": "only worker available"}]}`}, nil
	case req.Temperature == 0.3: // analyse
		return &llm.Response{Text: `{"verdict": "sufficient"}`}, nil
	default: // aggregate
		return &llm.Response{Text: "Here is your summary."}, nil
	}
}

// stubCaller answers every worker invocation with a canned response.
type stubCaller struct{}

func (stubCaller) Invoke(ctx context.Context, req worker.InvokeRequest) (worker.InvokeResponse, error) {
	return worker.InvokeResponse{Text: fmt.Sprintf("(%s handled: %s)", req.WorkerID, req.Description)}, nil
}

func main() {
	ctx := context.Background()

	reg := memory.New()
	reg.Register(registry.Card{
		WorkerID:    "summarizer",
		Name:        "Summarizer",
		Description: "Summarizes text",
		Endpoint:    "http://localhost:0/unused",
	})

	llmClient := &stubLLM{}
	logger := telemetry.NoopLogger{}

	d := &driver.Driver{
		Validator:  validator.New(llmClient, validator.Scope{InScope: []string{"general assistance"}}, logger),
		Planner:    planner.New(llmClient, logger),
		Gate:       approval.New(),
		Executor:   executor.New(stubCaller{}, reg, executor.Options{Logger: logger}),
		Analyser:   analyser.New(llmClient, logger),
		Aggregator: aggregator.New(llmClient, logger),
		Registry:   reg,
		Store:      inmem.New(),
		Logger:     logger,
	}

	rc, err := d.Start(ctx, driver.NewRunID(), "Summarize our quarterly progress", router.ModeAuto, 3)
	if err != nil {
		panic(err)
	}

	fmt.Println("run:", rc.RunID, "status:", rc.Status)
	if rc.FinalResponse != nil {
		fmt.Println("response:", *rc.FinalResponse)
	}
}
