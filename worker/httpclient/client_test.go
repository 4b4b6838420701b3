package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premanandc/agent-fleet/registry"
	"github.com/premanandc/agent-fleet/registry/store/memory"
	"github.com/premanandc/agent-fleet/worker"
)

func newStoreWithEndpoint(t *testing.T, workerID, endpoint string) registry.Store {
	t.Helper()
	s := memory.New()
	s.Register(registry.Card{WorkerID: workerID, Name: workerID, Endpoint: endpoint})
	return s
}

func TestInvokeHappyPath(t *testing.T) {
	var captured wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(wireResponse{Result: &wireResult{Parts: []wirePart{{Kind: "text", Text: "hello"}}}})
	}))
	defer srv.Close()

	store := newStoreWithEndpoint(t, "w1", srv.URL)
	c := New(store)

	resp, err := c.Invoke(context.Background(), worker.InvokeRequest{WorkerID: "w1", TaskID: "t1", ThreadID: "run-1", Description: "do it"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, "t1", captured.Message.MessageID)
	assert.Equal(t, "run-1", captured.Thread.ThreadID)
	assert.Equal(t, "do it", captured.Message.Parts[0].Text)
}

func TestInvokeIncludesPreambleInPayload(t *testing.T) {
	var captured wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(wireResponse{Result: &wireResult{Parts: []wirePart{{Kind: "text", Text: "ok"}}}})
	}))
	defer srv.Close()

	store := newStoreWithEndpoint(t, "w1", srv.URL)
	c := New(store)

	_, err := c.Invoke(context.Background(), worker.InvokeRequest{
		WorkerID: "w1", TaskID: "t2", Description: "summarize", Preamble: "[t1]: prior result\n",
	})
	require.NoError(t, err)
	assert.Contains(t, captured.Message.Parts[0].Text, "prior result")
	assert.Contains(t, captured.Message.Parts[0].Text, "summarize")
}

func TestInvokeWorkerNotFound(t *testing.T) {
	store := memory.New()
	c := New(store)

	_, err := c.Invoke(context.Background(), worker.InvokeRequest{WorkerID: "missing"})
	require.Error(t, err)
	var nfe *worker.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestInvokeRemoteErrorClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wireResponse{Error: &wireError{Message: "bad task"}})
	}))
	defer srv.Close()

	store := newStoreWithEndpoint(t, "w1", srv.URL)
	c := New(store)

	_, err := c.Invoke(context.Background(), worker.InvokeRequest{WorkerID: "w1", TaskID: "t1"})
	require.Error(t, err)
	var ce *worker.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, worker.KindRemote, ce.Kind)
	assert.Contains(t, ce.Error(), "bad task")
}

func TestInvokeHTTPStatusErrorClassifiedAsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newStoreWithEndpoint(t, "w1", srv.URL)
	c := New(store)

	_, err := c.Invoke(context.Background(), worker.InvokeRequest{WorkerID: "w1", TaskID: "t1"})
	require.Error(t, err)
	var ce *worker.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, worker.KindTransport, ce.Kind)
}

func TestWithBearerTokenSetsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(wireResponse{Result: &wireResult{Parts: []wirePart{{Kind: "text", Text: "ok"}}}})
	}))
	defer srv.Close()

	store := newStoreWithEndpoint(t, "w1", srv.URL)
	c := New(store, WithBearerToken("secret-token"))

	_, err := c.Invoke(context.Background(), worker.InvokeRequest{WorkerID: "w1", TaskID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}
