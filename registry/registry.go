// Package registry defines the Registry/Discovery (C2) contract: enumerate
// currently-known workers and fetch a single worker's capability card.
// Implementations consult an external control plane; failure to reach it is
// modelled as an empty result, not an error, so the Planner can report "no
// agents available" as a normal outcome (§4.9).
package registry

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetCard when no card exists for the given id.
var ErrNotFound = errors.New("worker card not found")

// Card is the capability card plus the transport metadata the Worker Client
// needs to reach the worker (endpoint URL). The WorkerCapability subset of
// this shape is what the Planner sees; the Endpoint is consumed only by the
// Worker Client transports.
type Card struct {
	WorkerID     string
	Name         string
	Description  string
	Capabilities []string
	Skills       []string
	Endpoint     string
}

// Store enumerates discoverable workers and resolves individual cards.
type Store interface {
	// ListWorkers enumerates currently-known workers. May return an empty
	// slice (never an error) when the control plane is unreachable.
	ListWorkers(ctx context.Context) ([]Card, error)

	// GetCard resolves a single worker's card, or ErrNotFound.
	GetCard(ctx context.Context, workerID string) (Card, error)
}
