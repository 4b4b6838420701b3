package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/premanandc/agent-fleet/registry"
)

func TestDocumentRoundTripPreservesFields(t *testing.T) {
	card := registry.Card{
		WorkerID:     "w1",
		Name:         "Summarizer",
		Description:  "summarizes text",
		Capabilities: []string{"summarize"},
		Skills:       []string{"nlp"},
		Endpoint:     "https://worker.example/invoke",
	}

	doc := toDocument(card)
	assert.Equal(t, card.WorkerID, doc.WorkerID)
	assert.Equal(t, card.Endpoint, doc.Endpoint)

	back := fromDocument(doc)
	assert.Equal(t, card, back)
}

func TestDocumentRoundTripHandlesEmptySlices(t *testing.T) {
	card := registry.Card{WorkerID: "w2", Name: "Minimal"}
	doc := toDocument(card)
	back := fromDocument(doc)
	assert.Equal(t, card, back)
}
