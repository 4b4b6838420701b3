// Package validator implements the Validator (C6): classifies an inbound
// request as in-scope or out-of-scope for this deployment.
package validator

import (
	"context"
	"fmt"

	"github.com/premanandc/agent-fleet/llm"
	"github.com/premanandc/agent-fleet/llm/prompt"
	"github.com/premanandc/agent-fleet/router"
	"github.com/premanandc/agent-fleet/telemetry"
)

// Validator classifies the original request (§4.1).
type Validator interface {
	Validate(ctx context.Context, originalRequest string) (router.Validation, error)
}

// Scope is the domain allow/deny list supplied via configuration (§4.1).
type Scope struct {
	InScope  []string
	OutScope []string
}

// LLMValidator delegates classification to an llm.Client.
type LLMValidator struct {
	Client llm.Client
	Scope  Scope
	Logger telemetry.Logger
}

// New constructs an LLMValidator.
func New(client llm.Client, scope Scope, logger telemetry.Logger) *LLMValidator {
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	return &LLMValidator{Client: client, Scope: scope, Logger: logger}
}

var _ Validator = (*LLMValidator)(nil)

type validateDecision struct {
	IsValid   bool   `json:"is_valid"`
	Reasoning string `json:"reasoning"`
}

// Validate implements Validator. Parse failure or LLM error is fail-closed
// per §4.1: {valid: false, reason: "validation error: <detail>"}.
func (v *LLMValidator) Validate(ctx context.Context, originalRequest string) (router.Validation, error) {
	user, err := prompt.Validate.Render(prompt.ValidateVars{
		Request:  originalRequest,
		InScope:  v.Scope.InScope,
		OutScope: v.Scope.OutScope,
	})
	if err != nil {
		return failClosed(fmt.Errorf("render validate prompt: %w", err)), nil
	}

	resp, err := v.Client.Complete(ctx, &llm.Request{
		System:      prompt.Validate.System,
		User:        user,
		Temperature: prompt.TemperatureValidate,
	})
	if err != nil {
		v.Logger.Warn(ctx, "validator llm call failed", "error", err)
		return failClosed(err), nil
	}

	var decision validateDecision
	if err := llm.UnmarshalJSON(resp.Text, &decision); err != nil {
		v.Logger.Warn(ctx, "validator response parse failed", "error", err, "raw", resp.Text)
		return failClosed(err), nil
	}

	return router.Validation{Valid: decision.IsValid, Reason: decision.Reasoning}, nil
}

func failClosed(err error) router.Validation {
	return router.Validation{Valid: false, Reason: fmt.Sprintf("validation error: %v", err)}
}
