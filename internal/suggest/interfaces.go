package suggest

import (
	"context"
	"time"
)

// Store is the persistence boundary. Mutating operations on suggestion
// records must be atomic at the store level: concurrent toggles on the same
// record serialize there, never through an in-process snapshot.
type Store interface {
	GuildConfig(ctx context.Context, guildID string) (*GuildConfig, error)
	UpdateGuildConfig(ctx context.Context, guildID string, patch ConfigPatch) error
	AddModeratorRole(ctx context.Context, guildID, roleID string) error
	RemoveModeratorRole(ctx context.Context, guildID, roleID string) error

	// NextSuggestionID advances the guild's suggestion counter and returns the
	// newly allocated id. Ids are never reused.
	NextSuggestionID(ctx context.Context, guildID string) (int64, error)

	InsertSuggestion(ctx context.Context, rec *Record) error
	Suggestion(ctx context.Context, guildID string, id int64) (*Record, error)
	PendingSuggestions(ctx context.Context, guildID string) ([]Record, error)

	// ToggleVote applies the toggle as a single conditional update against the
	// stored record and returns the post-toggle record. ErrNotFound is
	// returned when no pending record matches.
	ToggleVote(ctx context.Context, guildID string, id int64, voterID string, dir Direction) (*Record, error)

	// ClaimEscalation marks a pending, not-yet-escalated record as escalated.
	// Exactly one concurrent caller observes won == true.
	ClaimEscalation(ctx context.Context, guildID string, id int64) (won bool, err error)
	SetStaffMessage(ctx context.Context, guildID string, id int64, messageID string) error

	// Decide transitions a pending record to a terminal status and returns the
	// updated record. ErrNotFound is returned when no pending record matches.
	Decide(ctx context.Context, guildID string, id int64, verdict Status, moderatorID, reason string, at time.Time) (*Record, error)

	UserStats(ctx context.Context, userID string) (*UserStats, error)
	RecordSubmission(ctx context.Context, userID string, at time.Time) error
}

// Notifier delivers the outward-facing side effects. The workflow treats
// every call as best-effort except PublishSuggestion, whose message reference
// becomes part of the record.
type Notifier interface {
	PublishSuggestion(ctx context.Context, cfg *GuildConfig, rec *Record) (channelID, messageID string, err error)
	RefreshVotes(ctx context.Context, rec *Record) error
	PublishStaffReview(ctx context.Context, cfg *GuildConfig, rec *Record) (messageID string, err error)
	PublishDecision(ctx context.Context, cfg *GuildConfig, rec *Record) error
	NotifyAuthor(ctx context.Context, rec *Record) error
	ScheduleDeletion(channelID, messageID string, after time.Duration)
	LogEvent(ctx context.Context, cfg *GuildConfig, event string, rec *Record) error
}
