package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
)

// ScopeStore is the local scope catalog. Writes validate references
// against the client catalog.
type ScopeStore struct {
	coll    *mongo.Collection
	clients *ClientStore
}

// NewScopeStore returns the scope catalog backed by db.
func NewScopeStore(db *mongo.Database, clients *ClientStore) *ScopeStore {
	return &ScopeStore{coll: db.Collection(ScopesCollection), clients: clients}
}

func (s *ScopeStore) findMany(ctx context.Context, filter bson.D) ([]*models.Scope, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "value", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []*models.Scope{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the scope with the given hex object id.
func (s *ScopeStore) FindByID(ctx context.Context, scopeID string) (*models.Scope, error) {
	oid, err := primitive.ObjectIDFromHex(scopeID)
	if err != nil {
		return nil, errors.NotFound("Scope not found.")
	}
	var sc models.Scope
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&sc); err != nil {
		return nil, translate(err, "Scope")
	}
	return &sc, nil
}

// FindByAudienceID lists the scopes owned by a client.
func (s *ScopeStore) FindByAudienceID(ctx context.Context, audienceID string) ([]*models.Scope, error) {
	return s.findMany(ctx, bson.D{{Key: "audienceId", Value: audienceID}})
}

// FindByAudienceIDs lists the scopes owned by any of the given clients.
func (s *ScopeStore) FindByAudienceIDs(ctx context.Context, audienceIDs []string) ([]*models.Scope, error) {
	if len(audienceIDs) == 0 {
		return []*models.Scope{}, nil
	}
	return s.findMany(ctx, bson.D{{Key: "audienceId", Value: bson.D{{Key: "$in", Value: audienceIDs}}}})
}

// FindByAudienceIDAndValue returns an owner's scope by name.
func (s *ScopeStore) FindByAudienceIDAndValue(ctx context.Context, audienceID, value string) (*models.Scope, error) {
	var sc models.Scope
	err := s.coll.FindOne(ctx, bson.D{{Key: "audienceId", Value: audienceID}, {Key: "value", Value: value}}).Decode(&sc)
	if err != nil {
		return nil, translate(err, "Scope")
	}
	return &sc, nil
}

// CountByAudienceID counts the scopes owned by a client.
func (s *ScopeStore) CountByAudienceID(ctx context.Context, audienceID string) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.D{{Key: "audienceId", Value: audienceID}})
}

// FindPermitted lists, grouped by owner, the scopes that grant q.ClientID.
func (s *ScopeStore) FindPermitted(ctx context.Context, q models.PermittedQuery) ([]models.PermittedGroup, error) {
	cur, err := s.coll.Aggregate(ctx, permittedPipeline(q))
	if err != nil {
		return nil, err
	}
	out := []models.PermittedGroup{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidatePermittedClients fails with NotFound unless every id names a stored client.
func (s *ScopeStore) ValidatePermittedClients(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.clients.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return errors.NotFound("Some of the permitted clients not found.")
	}
	return nil
}

// Create stores a scope after resolving its owner and permitted clients.
func (s *ScopeStore) Create(ctx context.Context, sc *models.Scope) (*models.Scope, error) {
	if _, err := s.clients.FindByAudienceID(ctx, sc.AudienceID); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NotFound("Client not found.")
		}
		return nil, err
	}
	doc := *sc
	doc.PermittedClients = models.Dedupe(doc.PermittedClients)
	if err := s.ValidatePermittedClients(ctx, doc.PermittedClients); err != nil {
		return nil, err
	}
	doc.ID = primitive.NewObjectID()
	if doc.Description == "" {
		doc.Description = models.DefaultScopeDescription
	}
	if doc.Type == "" {
		doc.Type = models.ScopePrivate
	}
	if _, err := s.coll.InsertOne(ctx, &doc); err != nil {
		return nil, translate(err, "Scope")
	}
	return &doc, nil
}

// Update replaces the permitted clients of an owner's scope. Nothing else
// is mutable and the list is never merged.
func (s *ScopeStore) Update(ctx context.Context, audienceID, value string, permittedClients []string) (*models.Scope, error) {
	permitted := models.Dedupe(permittedClients)
	if err := s.ValidatePermittedClients(ctx, permitted); err != nil {
		return nil, err
	}
	var sc models.Scope
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "audienceId", Value: audienceID}, {Key: "value", Value: value}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "permittedClients", Value: permitted}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&sc)
	if err != nil {
		return nil, translate(err, "Scope")
	}
	return &sc, nil
}

// Delete removes a scope by id.
func (s *ScopeStore) Delete(ctx context.Context, scopeID string) error {
	oid, err := primitive.ObjectIDFromHex(scopeID)
	if err != nil {
		return errors.NotFound("Scope not found.")
	}
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errors.NotFound("Scope not found.")
	}
	return nil
}
