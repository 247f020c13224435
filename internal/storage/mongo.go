package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	guildConfigCollection = "guild_configs"
	suggestionCollection  = "suggestions"
	userStatsCollection   = "user_stats"
)

// Connect establishes and pings the MongoDB connection.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Database("admin").RunCommand(pingCtx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, client.Database(database), nil
}

// Store is the MongoDB-backed implementation of the suggestion persistence
// boundary. Guild configuration reads go through an in-process read-through
// cache; every write path hits MongoDB first and invalidates synchronously.
type Store struct {
	guilds      *mongo.Collection
	suggestions *mongo.Collection
	users       *mongo.Collection

	cache *guildCache
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		guilds:      db.Collection(guildConfigCollection),
		suggestions: db.Collection(suggestionCollection),
		users:       db.Collection(userStatsCollection),
		cache:       newGuildCache(),
	}
}

// EnsureIndexes creates the indexes the store's lookups rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.guilds.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("guild_configs index: %w", err)
	}

	_, err = s.suggestions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "suggestion_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("suggestions indexes: %w", err)
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("user_stats index: %w", err)
	}
	return nil
}
