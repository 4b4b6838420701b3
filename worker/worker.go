// Package worker defines the Worker Client (C1) contract: a uniform RPC
// boundary to remote specialist worker agents discovered at runtime. The
// contract is transport-agnostic; see httpclient and nexusclient for
// concrete implementations.
package worker

import (
	"context"
	"errors"
	"fmt"
)

// Caller invokes a worker's "handle a textual task" operation. Implementations
// MUST be safe to call from many goroutines concurrently and MUST hold no
// run-scoped mutable state (§4.8).
type Caller interface {
	Invoke(ctx context.Context, req InvokeRequest) (InvokeResponse, error)
}

// InvokeRequest describes a single worker dispatch.
type InvokeRequest struct {
	// WorkerID identifies the target worker, resolvable via the Registry.
	WorkerID string
	// TaskID correlates this invocation with the task driving it; used as the
	// RPC correlation id (messageId in the wire shape).
	TaskID string
	// ThreadID scopes the invocation to a run (threadId in the wire shape).
	ThreadID string
	// OriginalRequest is the verbatim user request text.
	OriginalRequest string
	// Description is the task directive for the worker.
	Description string
	// Preamble concatenates the results of this task's direct dependencies.
	Preamble string
}

// InvokeResponse carries the worker's result text.
type InvokeResponse struct {
	Text string
}

// Kind classifies a worker invocation failure per the §7 error taxonomy.
type Kind string

const (
	// KindTimeout means the per-task wall-clock deadline elapsed.
	KindTimeout Kind = "timeout"
	// KindTransport means an HTTP/JSON/network-level error occurred talking
	// to the worker.
	KindTransport Kind = "transport"
	// KindRemote means the worker returned a structured protocol error.
	KindRemote Kind = "remote"
	// KindCancelled means the invocation was aborted by run cancellation.
	KindCancelled Kind = "cancelled"
)

// ClassifiedError wraps a worker invocation failure with a stable Kind so
// the Executor can populate Task.Error without string-sniffing.
type ClassifiedError struct {
	Kind Kind
	Err  error
}

func (e *ClassifiedError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "execution timed out"
	case KindCancelled:
		return "cancelled"
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Kind)
	}
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// Classify wraps err with the given Kind, unless it is already a
// ClassifiedError (in which case it passes through unchanged).
func Classify(kind Kind, err error) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	return &ClassifiedError{Kind: kind, Err: err}
}

// ErrWorkerNotFound is returned when a WorkerID has no registered card.
var ErrWorkerNotFound = errors.New("worker not found")

// NotFoundError augments ErrWorkerNotFound with the offending worker id.
type NotFoundError struct {
	WorkerID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("worker %q not found: %v", e.WorkerID, ErrWorkerNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrWorkerNotFound }
