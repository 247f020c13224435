package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sunnybot/internal/suggest"
)

// guildDefaults returns the on-insert defaults for a fresh guild document,
// excluding any fields the caller is already setting.
func guildDefaults(exclude ...string) bson.M {
	defaults := bson.M{
		"upvote_threshold":   suggest.DefaultUpvoteThreshold,
		"min_length":         suggest.DefaultMinLength,
		"max_length":         suggest.DefaultMaxLength,
		"cooldown_seconds":   suggest.DefaultCooldownSeconds,
		"anonymous":          false,
		"dm_notifications":   true,
		"auto_delete_denied": false,
		"suggestion_count":   int64(0),
	}
	for _, key := range exclude {
		delete(defaults, key)
	}
	return defaults
}

func (s *Store) GuildConfig(ctx context.Context, guildID string) (*suggest.GuildConfig, error) {
	if cfg, ok := s.cache.get(guildID); ok {
		return cfg, nil
	}

	cfg := suggest.DefaultGuildConfig(guildID)
	err := s.guilds.FindOne(ctx, bson.M{"guild_id": guildID}).Decode(cfg)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("load guild config %s: %w", guildID, err)
	}

	s.cache.put(cfg)
	return cfg, nil
}

func (s *Store) UpdateGuildConfig(ctx context.Context, guildID string, patch suggest.ConfigPatch) error {
	set := bson.M{}
	if patch.SuggestionChannel != nil {
		set["suggestion_channel"] = *patch.SuggestionChannel
	}
	if patch.StaffChannel != nil {
		set["staff_channel"] = *patch.StaffChannel
	}
	if patch.LogChannel != nil {
		set["log_channel"] = *patch.LogChannel
	}
	if patch.UpvoteThreshold != nil {
		set["upvote_threshold"] = *patch.UpvoteThreshold
	}
	if patch.MinLength != nil {
		set["min_length"] = *patch.MinLength
	}
	if patch.MaxLength != nil {
		set["max_length"] = *patch.MaxLength
	}
	if patch.CooldownSeconds != nil {
		set["cooldown_seconds"] = *patch.CooldownSeconds
	}
	if patch.Anonymous != nil {
		set["anonymous"] = *patch.Anonymous
	}
	if patch.DMNotifications != nil {
		set["dm_notifications"] = *patch.DMNotifications
	}
	if patch.AutoDeleteDenied != nil {
		set["auto_delete_denied"] = *patch.AutoDeleteDenied
	}
	if len(set) == 0 {
		return nil
	}

	exclude := make([]string, 0, len(set))
	for key := range set {
		exclude = append(exclude, key)
	}
	update := bson.M{"$set": set}
	if onInsert := guildDefaults(exclude...); len(onInsert) > 0 {
		update["$setOnInsert"] = onInsert
	}

	_, err := s.guilds.UpdateOne(ctx, bson.M{"guild_id": guildID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update guild config %s: %w", guildID, err)
	}
	s.cache.invalidate(guildID)
	return nil
}

func (s *Store) AddModeratorRole(ctx context.Context, guildID, roleID string) error {
	update := bson.M{
		"$addToSet":    bson.M{"moderator_role_ids": roleID},
		"$setOnInsert": guildDefaults(),
	}
	_, err := s.guilds.UpdateOne(ctx, bson.M{"guild_id": guildID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("add moderator role %s to guild %s: %w", roleID, guildID, err)
	}
	s.cache.invalidate(guildID)
	return nil
}

func (s *Store) RemoveModeratorRole(ctx context.Context, guildID, roleID string) error {
	update := bson.M{"$pull": bson.M{"moderator_role_ids": roleID}}
	_, err := s.guilds.UpdateOne(ctx, bson.M{"guild_id": guildID}, update)
	if err != nil {
		return fmt.Errorf("remove moderator role %s from guild %s: %w", roleID, guildID, err)
	}
	s.cache.invalidate(guildID)
	return nil
}

// NextSuggestionID atomically advances the guild's counter. The counter only
// ever grows, so ids are never reused even after a record is purged.
func (s *Store) NextSuggestionID(ctx context.Context, guildID string) (int64, error) {
	update := bson.M{
		"$inc":         bson.M{"suggestion_count": int64(1)},
		"$setOnInsert": guildDefaults("suggestion_count"),
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	cfg := suggest.DefaultGuildConfig(guildID)
	err := s.guilds.FindOneAndUpdate(ctx, bson.M{"guild_id": guildID}, update, opts).Decode(cfg)
	if err != nil {
		return 0, fmt.Errorf("allocate suggestion id for guild %s: %w", guildID, err)
	}
	s.cache.invalidate(guildID)
	return cfg.SuggestionCount, nil
}
