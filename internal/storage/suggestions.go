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

func suggestionFilter(guildID string, id int64) bson.M {
	return bson.M{"guild_id": guildID, "suggestion_id": id}
}

func pendingFilter(guildID string, id int64) bson.M {
	f := suggestionFilter(guildID, id)
	f["status"] = suggest.StatusPending
	return f
}

func (s *Store) InsertSuggestion(ctx context.Context, rec *suggest.Record) error {
	if _, err := s.suggestions.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert suggestion %d for guild %s: %w", rec.ID, rec.GuildID, err)
	}
	return nil
}

func (s *Store) Suggestion(ctx context.Context, guildID string, id int64) (*suggest.Record, error) {
	var rec suggest.Record
	err := s.suggestions.FindOne(ctx, suggestionFilter(guildID, id)).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, suggest.ErrNotFound
		}
		return nil, fmt.Errorf("load suggestion %d for guild %s: %w", id, guildID, err)
	}
	return &rec, nil
}

func (s *Store) PendingSuggestions(ctx context.Context, guildID string) ([]suggest.Record, error) {
	filter := bson.M{"guild_id": guildID, "status": suggest.StatusPending}
	opts := options.Find().SetSort(bson.D{{Key: "suggestion_id", Value: 1}})

	cursor, err := s.suggestions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list pending suggestions for guild %s: %w", guildID, err)
	}
	defer cursor.Close(ctx)

	var records []suggest.Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode pending suggestions for guild %s: %w", guildID, err)
	}
	return records, nil
}

// ToggleVote runs the whole toggle as one aggregation-pipeline update
// conditioned on the record still being pending. Same direction removes the
// voter, the opposite direction adds them while dropping any vote in the
// other set, so the two sets stay disjoint no matter how calls interleave.
func (s *Store) ToggleVote(ctx context.Context, guildID string, id int64, voterID string, dir suggest.Direction) (*suggest.Record, error) {
	target, opposite := "upvotes", "downvotes"
	if dir == suggest.VoteDown {
		target, opposite = opposite, target
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			target: bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{voterID, bson.M{"$ifNull": bson.A{"$" + target, bson.A{}}}}},
				bson.M{"$setDifference": bson.A{"$" + target, bson.A{voterID}}},
				bson.M{"$setUnion": bson.A{bson.M{"$ifNull": bson.A{"$" + target, bson.A{}}}, bson.A{voterID}}},
			}},
			opposite: bson.M{"$setDifference": bson.A{bson.M{"$ifNull": bson.A{"$" + opposite, bson.A{}}}, bson.A{voterID}}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec suggest.Record
	err := s.suggestions.FindOneAndUpdate(ctx, pendingFilter(guildID, id), pipeline, opts).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, suggest.ErrNotFound
		}
		return nil, fmt.Errorf("toggle %s vote on suggestion %d: %w", dir, id, err)
	}
	return &rec, nil
}

// ClaimEscalation flips the escalated flag on a pending record. The filter
// makes the flip conditional, so exactly one concurrent caller wins.
func (s *Store) ClaimEscalation(ctx context.Context, guildID string, id int64) (bool, error) {
	filter := pendingFilter(guildID, id)
	filter["escalated"] = false

	res, err := s.suggestions.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"escalated": true}})
	if err != nil {
		return false, fmt.Errorf("claim escalation for suggestion %d: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *Store) SetStaffMessage(ctx context.Context, guildID string, id int64, messageID string) error {
	filter := pendingFilter(guildID, id)
	filter["staff_message_id"] = bson.M{"$in": bson.A{nil, ""}}

	res, err := s.suggestions.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"staff_message_id": messageID}})
	if err != nil {
		return fmt.Errorf("set staff message for suggestion %d: %w", id, err)
	}
	if res.ModifiedCount == 0 {
		return fmt.Errorf("staff message for suggestion %d was already set", id)
	}
	return nil
}

func (s *Store) Decide(ctx context.Context, guildID string, id int64, verdict suggest.Status, moderatorID, reason string, at time.Time) (*suggest.Record, error) {
	set := bson.M{
		"status":     verdict,
		"decided_by": moderatorID,
		"decided_at": at,
	}
	if reason != "" {
		set["reason"] = reason
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec suggest.Record
	err := s.suggestions.FindOneAndUpdate(ctx, pendingFilter(guildID, id), bson.M{"$set": set}, opts).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, suggest.ErrNotFound
		}
		return nil, fmt.Errorf("decide suggestion %d: %w", id, err)
	}
	return &rec, nil
}
