package store

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
)

// ClientStore is the local client catalog.
type ClientStore struct{ coll *mongo.Collection }

// NewClientStore returns the client catalog backed by db.
func NewClientStore(db *mongo.Database) *ClientStore {
	return &ClientStore{coll: db.Collection(ClientsCollection)}
}

func (s *ClientStore) findOne(ctx context.Context, filter bson.D) (*models.Client, error) {
	var c models.Client
	if err := s.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, translate(err, "Client")
	}
	return &c, nil
}

func (s *ClientStore) findMany(ctx context.Context, filter bson.D, opts ...*options.FindOptions) ([]*models.Client, error) {
	cur, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []*models.Client{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the client with the given client id.
func (s *ClientStore) FindByID(ctx context.Context, clientID string) (*models.Client, error) {
	return s.findOne(ctx, bson.D{{Key: "clientId", Value: clientID}})
}

// FindByAudienceID returns the client owning the given audience id.
func (s *ClientStore) FindByAudienceID(ctx context.Context, audienceID string) (*models.Client, error) {
	return s.findOne(ctx, bson.D{{Key: "audienceId", Value: audienceID}})
}

// FindByIDs returns the clients among ids that exist.
func (s *ClientStore) FindByIDs(ctx context.Context, ids []string) ([]*models.Client, error) {
	if len(ids) == 0 {
		return []*models.Client{}, nil
	}
	return s.findMany(ctx, bson.D{{Key: "clientId", Value: bson.D{{Key: "$in", Value: ids}}}})
}

// FindByTeamID lists a team's clients by name.
func (s *ClientStore) FindByTeamID(ctx context.Context, teamID string) ([]*models.Client, error) {
	return s.FindByTeamIDs(ctx, []string{teamID})
}

// FindByTeamIDs lists the clients of any of teamIDs by name.
func (s *ClientStore) FindByTeamIDs(ctx context.Context, teamIDs []string) ([]*models.Client, error) {
	if len(teamIDs) == 0 {
		return []*models.Client{}, nil
	}
	return s.findMany(ctx,
		bson.D{{Key: "teamId", Value: bson.D{{Key: "$in", Value: teamIDs}}}},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}),
	)
}

// SearchByName matches query against stored name grams and ranks by overlap.
func (s *ClientStore) SearchByName(ctx context.Context, query string, limit int) ([]models.ClientSearchResult, error) {
	grams := queryGrams(query)
	var match bson.D
	if len(grams) == 0 {
		match = bson.D{{Key: "name", Value: primitive.Regex{Pattern: "^" + regexp.QuoteMeta(query), Options: "i"}}}
	} else {
		match = bson.D{{Key: "nameFuzzy", Value: bson.D{{Key: "$in", Value: grams}}}}
	}
	if grams == nil {
		grams = []string{}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.D{{Key: "score", Value: bson.D{{Key: "$size", Value: bson.D{
			{Key: "$setIntersection", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$nameFuzzy", bson.A{}}}}, grams}},
		}}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}, {Key: "name", Value: 1}}}},
		{{Key: "$limit", Value: int64(ClampLimit(limit))}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "clientId", Value: 1},
			{Key: "name", Value: 1},
			{Key: "description", Value: 1},
			{Key: "teamId", Value: 1},
			{Key: "score", Value: 1},
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := []models.ClientSearchResult{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Find runs the aggregate listing: scopes joined in, ranked by q.Sort and paged.
func (s *ClientStore) Find(ctx context.Context, q models.FindQuery) ([]models.ClientListing, error) {
	cur, err := s.coll.Aggregate(ctx, clientListingPipeline(q))
	if err != nil {
		return nil, err
	}
	out := []models.ClientListing{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores a new client.
func (s *ClientStore) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	doc := *c
	doc.ID = primitive.NewObjectID()
	if doc.Description == "" {
		doc.Description = models.DefaultClientDescription
	}
	doc.NameFuzzy = nameGrams(doc.Name)
	if _, err := s.coll.InsertOne(ctx, &doc); err != nil {
		return nil, translate(err, "Client")
	}
	return &doc, nil
}

// Update merges the present fields of patch. Unique indexes re-validate.
func (s *ClientStore) Update(ctx context.Context, clientID string, patch models.ClientPatch) (*models.Client, error) {
	set := patchDocument(patch)
	if len(set) == 0 {
		return s.FindByID(ctx, clientID)
	}
	var c models.Client
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "clientId", Value: clientID}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, translate(err, "Client")
	}
	return &c, nil
}

func patchDocument(p models.ClientPatch) bson.D {
	var set bson.D
	if p.ClientID != nil {
		set = append(set, bson.E{Key: "clientId", Value: *p.ClientID})
	}
	if p.AudienceID != nil {
		set = append(set, bson.E{Key: "audienceId", Value: *p.AudienceID})
	}
	if p.Name != nil {
		set = append(set,
			bson.E{Key: "name", Value: *p.Name},
			bson.E{Key: "nameFuzzy", Value: nameGrams(*p.Name)},
		)
	}
	if p.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *p.Description})
	}
	if p.HostURIs != nil {
		set = append(set, bson.E{Key: "hostUris", Value: p.HostURIs})
	}
	if p.Token != nil {
		set = append(set, bson.E{Key: "token", Value: *p.Token})
	}
	return set
}

// Delete removes a client. Callers check that no scope references it first.
func (s *ClientStore) Delete(ctx context.Context, clientID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "clientId", Value: clientID}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errors.NotFound("Client not found.")
	}
	return nil
}
