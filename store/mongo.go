// Package store persists the local mirror of clients and scopes in MongoDB,
// the team directory in a relational database and the shared bearer in Valkey.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/misha1235000/SpikeServer/errors"
)

const (
	ClientsCollection = "clients"
	ScopesCollection  = "scopes"
)

// ConnectMongo dials uri and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return cli, nil
}

// EnsureIndexes creates the uniqueness constraints the catalogs rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	clientIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "clientId", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "audienceId", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: unique},
		// Multikey: every host uri is unique across all clients.
		{Keys: bson.D{{Key: "hostUris", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "teamId", Value: 1}}},
		{Keys: bson.D{{Key: "nameFuzzy", Value: 1}}},
	}
	if _, err := db.Collection(ClientsCollection).Indexes().CreateMany(ctx, clientIdx); err != nil {
		return fmt.Errorf("create client indexes: %w", err)
	}
	scopeIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "value", Value: 1}, {Key: "audienceId", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "audienceId", Value: 1}}},
		{Keys: bson.D{{Key: "permittedClients", Value: 1}}},
	}
	if _, err := db.Collection(ScopesCollection).Indexes().CreateMany(ctx, scopeIdx); err != nil {
		return fmt.Errorf("create scope indexes: %w", err)
	}
	return nil
}

// translate maps driver errors onto the error taxonomy. Duplicate keys
// (code 11000) become DuplicateUnique, a missing document NotFound; the
// rest propagate unchanged.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errors.NotFound(what + " not found.")
	case mongo.IsDuplicateKeyError(err):
		return errors.DuplicateUnique(what+" uniques already exists.", err)
	default:
		return err
	}
}
