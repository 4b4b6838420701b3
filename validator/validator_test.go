package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premanandc/agent-fleet/llm"
	"github.com/premanandc/agent-fleet/telemetry"
)

type fakeClient struct {
	resp *llm.Response
	err  error
}

func (f *fakeClient) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return f.resp, f.err
}

func TestValidateAcceptsInScope(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: `{"is_valid": true, "reasoning": "matches our domain"}`}}
	v := New(c, Scope{InScope: []string{"engineering"}}, telemetry.NoopLogger{})

	val, err := v.Validate(context.Background(), "help me write a test")
	require.NoError(t, err)
	assert.True(t, val.Valid)
	assert.Equal(t, "matches our domain", val.Reason)
}

func TestValidateFailsClosedOnLLMError(t *testing.T) {
	c := &fakeClient{err: errors.New("provider unavailable")}
	v := New(c, Scope{}, telemetry.NoopLogger{})

	val, err := v.Validate(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, val.Valid)
	assert.Contains(t, val.Reason, "validation error")
	assert.Contains(t, val.Reason, "provider unavailable")
}

func TestValidateFailsClosedOnMalformedJSON(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: "not json at all"}}
	v := New(c, Scope{}, telemetry.NoopLogger{})

	val, err := v.Validate(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, val.Valid)
	assert.Contains(t, val.Reason, "validation error")
}

func TestValidateExtractsFencedJSON(t *testing.T) {
	c := &fakeClient{resp: &llm.Response{Text: "```json\n{\"is_valid\": false, \"reasoning\": \"out of domain\"}\n```"}}
	v := New(c, Scope{}, telemetry.NoopLogger{})

	val, err := v.Validate(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, val.Valid)
	assert.Equal(t, "out of domain", val.Reason)
}
