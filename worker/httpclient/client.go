// Package httpclient implements worker.Caller over HTTP, using the
// message/send-style JSON wire shape defined in spec §6.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/premanandc/agent-fleet/registry"
	"github.com/premanandc/agent-fleet/worker"
)

type (
	// Option configures the HTTP client.
	Option func(*Client)

	// Client implements worker.Caller over HTTP, resolving worker endpoints
	// via a registry.Store on every Invoke; resolved cards are not cached.
	Client struct {
		store   registry.Store
		http    *http.Client
		headers http.Header
	}

	wireMessage struct {
		Role      string     `json:"role"`
		Parts     []wirePart `json:"parts"`
		MessageID string     `json:"messageId"`
	}

	wirePart struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}

	wireThread struct {
		ThreadID string `json:"threadId"`
	}

	wireRequest struct {
		Message wireMessage `json:"message"`
		Thread  wireThread  `json:"thread"`
	}

	wireResponse struct {
		Result *wireResult `json:"result"`
		Error  *wireError  `json:"error"`
	}

	wireResult struct {
		Parts []wirePart `json:"parts"`
	}

	wireError struct {
		Message string `json:"message"`
	}
)

// WithHTTPClient overrides the underlying *http.Client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithHeader adds a static header to all outgoing requests.
func WithHeader(name, value string) Option {
	return func(cl *Client) {
		if cl.headers == nil {
			cl.headers = make(http.Header)
		}
		cl.headers.Add(name, value)
	}
}

// WithBearerToken configures the client to send an Authorization Bearer token.
func WithBearerToken(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// New constructs a Client that resolves worker endpoints via store.
func New(store registry.Store, opts ...Option) *Client {
	cl := &Client{
		store:   store,
		http:    &http.Client{Timeout: 30 * time.Second},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cl)
		}
	}
	return cl
}

var _ worker.Caller = (*Client)(nil)

// Invoke fetches the worker's card to resolve its endpoint, then POSTs the
// message/send-style payload described in spec §6.
func (c *Client) Invoke(ctx context.Context, req worker.InvokeRequest) (worker.InvokeResponse, error) {
	card, err := c.store.GetCard(ctx, req.WorkerID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return worker.InvokeResponse{}, &worker.NotFoundError{WorkerID: req.WorkerID}
		}
		return worker.InvokeResponse{}, worker.Classify(worker.KindTransport, err)
	}

	payload := req.Preamble
	if payload != "" {
		payload = fmt.Sprintf("Context from dependencies:\n%s\n\nTask:\n%s", req.Preamble, req.Description)
	} else {
		payload = req.Description
	}

	body := wireRequest{
		Message: wireMessage{
			Role:      "user",
			Parts:     []wirePart{{Kind: "text", Text: payload}},
			MessageID: req.TaskID,
		},
		Thread: wireThread{ThreadID: req.ThreadID},
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return worker.InvokeResponse{}, worker.Classify(worker.KindTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, card.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return worker.InvokeResponse{}, worker.Classify(worker.KindTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return worker.InvokeResponse{}, worker.Classify(worker.KindCancelled, ctx.Err())
		}
		return worker.InvokeResponse{}, worker.Classify(worker.KindTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return worker.InvokeResponse{}, worker.Classify(worker.KindTransport, fmt.Errorf("worker http status %d", resp.StatusCode))
	}

	var wresp wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wresp); err != nil {
		return worker.InvokeResponse{}, worker.Classify(worker.KindTransport, fmt.Errorf("decode worker response: %w", err))
	}
	if wresp.Error != nil {
		return worker.InvokeResponse{}, worker.Classify(worker.KindRemote, errors.New(wresp.Error.Message))
	}
	if wresp.Result == nil {
		return worker.InvokeResponse{}, worker.Classify(worker.KindRemote, errors.New("worker response missing result and error"))
	}

	var text string
	for _, p := range wresp.Result.Parts {
		if p.Kind == "text" {
			text += p.Text
		}
	}
	return worker.InvokeResponse{Text: text}, nil
}
