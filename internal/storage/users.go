package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sunnybot/internal/suggest"
)

func (s *Store) UserStats(ctx context.Context, userID string) (*suggest.UserStats, error) {
	var stats suggest.UserStats
	err := s.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&stats)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &suggest.UserStats{UserID: userID}, nil
		}
		return nil, fmt.Errorf("load stats for user %s: %w", userID, err)
	}
	return &stats, nil
}

func (s *Store) RecordSubmission(ctx context.Context, userID string, at time.Time) error {
	update := bson.M{
		"$set": bson.M{"last_suggest_ts": at},
		"$inc": bson.M{"suggestions_made": int64(1)},
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("record submission for user %s: %w", userID, err)
	}
	return nil
}
