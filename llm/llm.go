// Package llm defines the provider-agnostic LLM adapter used by the four
// prompted call sites (validate, plan, analyse, aggregate). It is trimmed
// from the teacher's multimodal/tool-calling model package down to what a
// DAG-planning router needs: render a templated prompt, invoke a model at a
// given temperature, get text back.
package llm

import "context"

// Request captures a single non-streaming model invocation.
type Request struct {
	// Model is the provider-specific model identifier. Empty selects the
	// provider's configured default.
	Model string

	// System is the system prompt for this call site.
	System string

	// User is the rendered user-message prompt for this call site.
	User string

	// Temperature controls sampling. Each call site in this codebase uses a
	// fixed preset (see prompt.Temperature*).
	Temperature float32

	// MaxTokens caps output tokens when supported by the provider. Zero lets
	// the provider apply its own default.
	MaxTokens int
}

// Response is the result of a non-streaming invocation.
type Response struct {
	// Text is the concatenated assistant text content.
	Text string

	// Usage reports token consumption when the provider exposes it.
	Usage TokenUsage
}

// TokenUsage tracks token counts for a model call.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Client is the provider-agnostic model client. Provider adapters (Anthropic,
// OpenAI, Bedrock) translate Request into their own wire format and adapt the
// response back into Response.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}
