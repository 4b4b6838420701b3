package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premanandc/agent-fleet/registry"
)

func TestListWorkersEmptyByDefault(t *testing.T) {
	s := New()
	workers, err := s.ListWorkers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, workers)
}

func TestRegisterThenListWorkers(t *testing.T) {
	s := New()
	s.Register(registry.Card{WorkerID: "w1", Name: "Summarizer"})
	s.Register(registry.Card{WorkerID: "w2", Name: "Translator"})

	workers, err := s.ListWorkers(context.Background())
	require.NoError(t, err)
	assert.Len(t, workers, 2)
}

func TestRegisterReplacesExistingCard(t *testing.T) {
	s := New()
	s.Register(registry.Card{WorkerID: "w1", Name: "Old Name"})
	s.Register(registry.Card{WorkerID: "w1", Name: "New Name"})

	card, err := s.GetCard(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "New Name", card.Name)
}

func TestDeregisterRemovesCard(t *testing.T) {
	s := New()
	s.Register(registry.Card{WorkerID: "w1"})
	s.Deregister("w1")

	_, err := s.GetCard(context.Background(), "w1")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestGetCardNotFound(t *testing.T) {
	s := New()
	_, err := s.GetCard(context.Background(), "nope")
	assert.True(t, errors.Is(err, registry.ErrNotFound))
}

func TestListWorkersRespectsCancelledContext(t *testing.T) {
	s := New()
	s.Register(registry.Card{WorkerID: "w1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ListWorkers(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
