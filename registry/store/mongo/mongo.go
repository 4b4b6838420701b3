// Package mongo provides a MongoDB-backed implementation of the registry
// store, for deployments where the worker capability catalogue must persist
// across restarts and be shared across multiple router instances.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/premanandc/agent-fleet/registry"
)

// Store is a MongoDB implementation of registry.Store.
type Store struct {
	collection *mongo.Collection
}

var _ registry.Store = (*Store)(nil)

type cardDocument struct {
	WorkerID     string   `bson:"_id"`
	Name         string   `bson:"name"`
	Description  string   `bson:"description"`
	Capabilities []string `bson:"capabilities,omitempty"`
	Skills       []string `bson:"skills,omitempty"`
	Endpoint     string   `bson:"endpoint"`
}

// New creates a store backed by the given collection.
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

// Upsert stores or replaces a worker card. Called by whatever discovery
// process polls the external control plane and feeds results into Mongo.
func (s *Store) Upsert(ctx context.Context, card registry.Card) error {
	doc := toDocument(card)
	opts := mongo.ReplaceOptions{}
	opts.SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": card.WorkerID}, doc, &opts)
	if err != nil {
		return fmt.Errorf("mongodb upsert worker card %q: %w", card.WorkerID, err)
	}
	return nil
}

// ListWorkers returns every registered card. Failure to reach MongoDB is
// treated as "no agents available" (§4.9) rather than propagated as an
// error, matching the Registry contract for control-plane unavailability.
func (s *Store) ListWorkers(ctx context.Context) ([]registry.Card, error) {
	cur, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, nil
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []registry.Card
	for cur.Next(ctx) {
		var doc cardDocument
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		out = append(out, fromDocument(doc))
	}
	return out, nil
}

// GetCard resolves a single worker's card, or registry.ErrNotFound.
func (s *Store) GetCard(ctx context.Context, workerID string) (registry.Card, error) {
	var doc cardDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": workerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return registry.Card{}, registry.ErrNotFound
		}
		return registry.Card{}, fmt.Errorf("mongodb get worker card %q: %w", workerID, err)
	}
	return fromDocument(doc), nil
}

func toDocument(c registry.Card) cardDocument {
	return cardDocument{
		WorkerID:     c.WorkerID,
		Name:         c.Name,
		Description:  c.Description,
		Capabilities: c.Capabilities,
		Skills:       c.Skills,
		Endpoint:     c.Endpoint,
	}
}

func fromDocument(d cardDocument) registry.Card {
	return registry.Card{
		WorkerID:     d.WorkerID,
		Name:         d.Name,
		Description:  d.Description,
		Capabilities: d.Capabilities,
		Skills:       d.Skills,
		Endpoint:     d.Endpoint,
	}
}
