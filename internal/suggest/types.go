package suggest

import (
	"slices"
	"time"
)

// Status of a suggestion. Terminal once non-pending.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// Direction of a vote toggle.
type Direction string

const (
	VoteUp   Direction = "up"
	VoteDown Direction = "down"
)

// GuildConfig is the per-guild suggestion configuration document.
type GuildConfig struct {
	GuildID           string   `bson:"guild_id"`
	SuggestionChannel string   `bson:"suggestion_channel,omitempty"`
	StaffChannel      string   `bson:"staff_channel,omitempty"`
	LogChannel        string   `bson:"log_channel,omitempty"`
	UpvoteThreshold   int      `bson:"upvote_threshold"`
	MinLength         int      `bson:"min_length"`
	MaxLength         int      `bson:"max_length"`
	CooldownSeconds   int      `bson:"cooldown_seconds"`
	Anonymous         bool     `bson:"anonymous"`
	DMNotifications   bool     `bson:"dm_notifications"`
	AutoDeleteDenied  bool     `bson:"auto_delete_denied"`
	ModeratorRoleIDs  []string `bson:"moderator_role_ids,omitempty"`
	SuggestionCount   int64    `bson:"suggestion_count"`
}

const (
	DefaultUpvoteThreshold = 10
	DefaultMinLength       = 10
	DefaultMaxLength       = 2000
	DefaultCooldownSeconds = 300
)

// DefaultGuildConfig returns the configuration a guild has before any admin touched it.
func DefaultGuildConfig(guildID string) *GuildConfig {
	return &GuildConfig{
		GuildID:         guildID,
		UpvoteThreshold: DefaultUpvoteThreshold,
		MinLength:       DefaultMinLength,
		MaxLength:       DefaultMaxLength,
		CooldownSeconds: DefaultCooldownSeconds,
		DMNotifications: true,
	}
}

// Clone returns a copy safe to hand to callers.
func (c *GuildConfig) Clone() *GuildConfig {
	out := *c
	out.ModeratorRoleIDs = slices.Clone(c.ModeratorRoleIDs)
	return &out
}

// ConfigPatch is a partial guild configuration update. Nil fields are left unchanged.
type ConfigPatch struct {
	SuggestionChannel *string
	StaffChannel      *string
	LogChannel        *string
	UpvoteThreshold   *int
	MinLength         *int
	MaxLength         *int
	CooldownSeconds   *int
	Anonymous         *bool
	DMNotifications   *bool
	AutoDeleteDenied  *bool
}

// Record is one suggestion tracked through pending -> approved/denied.
type Record struct {
	GuildID        string     `bson:"guild_id"`
	ID             int64      `bson:"suggestion_id"`
	AuthorID       string     `bson:"author_id"`
	Content        string     `bson:"content"`
	ImageURL       string     `bson:"image_url,omitempty"`
	ChannelID      string     `bson:"channel_id"`
	MessageID      string     `bson:"message_id"`
	Status         Status     `bson:"status"`
	CreatedAt      time.Time  `bson:"created_at"`
	Upvotes        []string   `bson:"upvotes"`
	Downvotes      []string   `bson:"downvotes"`
	Escalated      bool       `bson:"escalated"`
	StaffMessageID string     `bson:"staff_message_id,omitempty"`
	DecidedBy      string     `bson:"decided_by,omitempty"`
	DecidedAt      *time.Time `bson:"decided_at,omitempty"`
	Reason         string     `bson:"reason,omitempty"`
}

func (r *Record) UpvoteCount() int   { return len(r.Upvotes) }
func (r *Record) DownvoteCount() int { return len(r.Downvotes) }

func (r *Record) HasUpvoted(userID string) bool   { return slices.Contains(r.Upvotes, userID) }
func (r *Record) HasDownvoted(userID string) bool { return slices.Contains(r.Downvotes, userID) }

// UserStats is the global per-user submission record.
type UserStats struct {
	UserID          string    `bson:"user_id"`
	LastSuggestTS   time.Time `bson:"last_suggest_ts"`
	SuggestionsMade int64     `bson:"suggestions_made"`
}

// Actor is whoever triggered an operation, with the permission facts the
// workflow needs to authorize it.
type Actor struct {
	ID            string
	Administrator bool
	RoleIDs       []string
}

// CanModerate reports whether the actor may decide suggestions in this guild.
func (a Actor) CanModerate(cfg *GuildConfig) bool {
	if a.Administrator {
		return true
	}
	for _, role := range a.RoleIDs {
		if slices.Contains(cfg.ModeratorRoleIDs, role) {
			return true
		}
	}
	return false
}

// VoteOutcome reports the counts after a toggle and whether this toggle
// forwarded the suggestion to staff review.
type VoteOutcome struct {
	Record    *Record
	Upvotes   int
	Downvotes int
	Escalated bool
}
