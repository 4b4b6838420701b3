// Package nexusclient implements worker.Caller over Nexus RPC
// (github.com/nexus-rpc/sdk-go), for worker fleets that expose their
// "handle a textual task" operation as a Nexus handler rather than a
// bespoke HTTP endpoint. It carries the same §6 payload semantics as
// httpclient — only the transport envelope differs.
package nexusclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nexus-rpc/sdk-go/nexus"

	"github.com/premanandc/agent-fleet/registry"
	"github.com/premanandc/agent-fleet/worker"
)

// operationName is the single Nexus operation every worker handler exposes:
// "handle a textual task and return text".
const operationName = "handle_task"

type taskPayload struct {
	TaskID          string `json:"taskId"`
	ThreadID        string `json:"threadId"`
	OriginalRequest string `json:"originalRequest"`
	Description     string `json:"description"`
	Preamble        string `json:"preamble"`
}

type taskResult struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Client implements worker.Caller over Nexus RPC, resolving one
// *nexus.HTTPClient per worker endpoint (cached) via a registry.Store.
type Client struct {
	store   registry.Store
	mu      sync.Mutex
	clients map[string]*nexus.HTTPClient
}

var _ worker.Caller = (*Client)(nil)

// New constructs a Client that resolves worker endpoints via store.
func New(store registry.Store) *Client {
	return &Client{store: store, clients: make(map[string]*nexus.HTTPClient)}
}

func (c *Client) clientFor(card registry.Card) (*nexus.HTTPClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[card.WorkerID]; ok {
		return cl, nil
	}
	cl, err := nexus.NewHTTPClient(nexus.HTTPClientOptions{
		BaseURL: card.Endpoint,
		Service: card.WorkerID,
	})
	if err != nil {
		return nil, err
	}
	c.clients[card.WorkerID] = cl
	return cl, nil
}

// Invoke starts and awaits the handle_task Nexus operation on the resolved
// worker endpoint.
func (c *Client) Invoke(ctx context.Context, req worker.InvokeRequest) (worker.InvokeResponse, error) {
	card, err := c.store.GetCard(ctx, req.WorkerID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return worker.InvokeResponse{}, &worker.NotFoundError{WorkerID: req.WorkerID}
		}
		return worker.InvokeResponse{}, worker.Classify(worker.KindTransport, err)
	}

	cl, err := c.clientFor(card)
	if err != nil {
		return worker.InvokeResponse{}, worker.Classify(worker.KindTransport, err)
	}

	payload := taskPayload{
		TaskID:          req.TaskID,
		ThreadID:        req.ThreadID,
		OriginalRequest: req.OriginalRequest,
		Description:     req.Description,
		Preamble:        req.Preamble,
	}

	result, err := nexus.ExecuteOperation(ctx, cl, nexus.ExecuteOperationOptions{
		Operation: operationName,
		Input:     payload,
	})
	if err != nil {
		if ctx.Err() != nil {
			return worker.InvokeResponse{}, worker.Classify(worker.KindCancelled, ctx.Err())
		}
		return worker.InvokeResponse{}, worker.Classify(worker.KindTransport, fmt.Errorf("nexus execute operation: %w", err))
	}

	var tr taskResult
	if err := json.Unmarshal(result, &tr); err != nil {
		return worker.InvokeResponse{}, worker.Classify(worker.KindTransport, fmt.Errorf("decode nexus result: %w", err))
	}
	if tr.Error != "" {
		return worker.InvokeResponse{}, worker.Classify(worker.KindRemote, errors.New(tr.Error))
	}
	return worker.InvokeResponse{Text: tr.Text}, nil
}
