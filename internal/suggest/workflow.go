package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DeniedDeleteGrace is how long a denied suggestion's public message stays
// visible before auto-deletion kicks in.
const DeniedDeleteGrace = 10 * time.Second

// Workflow runs the suggestion lifecycle: submission gating, vote toggling
// with staff escalation, and moderation decisions.
type Workflow struct {
	store    Store
	notifier Notifier
	log      *zap.SugaredLogger

	now         func() time.Time
	deleteGrace time.Duration
}

func NewWorkflow(store Store, notifier Notifier, log *zap.SugaredLogger) *Workflow {
	return &Workflow{
		store:       store,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
		deleteGrace: DeniedDeleteGrace,
	}
}

// GuildConfig exposes the guild's current configuration for read-only callers.
func (w *Workflow) GuildConfig(ctx context.Context, guildID string) (*GuildConfig, error) {
	return w.store.GuildConfig(ctx, guildID)
}

// Suggestion exposes a single record for read-only callers.
func (w *Workflow) Suggestion(ctx context.Context, guildID string, id int64) (*Record, error) {
	return w.store.Suggestion(ctx, guildID, id)
}

// PendingSuggestions lists this guild's undecided records.
func (w *Workflow) PendingSuggestions(ctx context.Context, guildID string) ([]Record, error) {
	return w.store.PendingSuggestions(ctx, guildID)
}

// Submit validates and admits a new suggestion. Checks run in order and
// short-circuit; nothing is persisted on any rejection. imageURL is an
// optional attachment shown on the embeds; it does not count toward length.
func (w *Workflow) Submit(ctx context.Context, guildID, authorID, content, imageURL string) (*Record, error) {
	cfg, err := w.store.GuildConfig(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("load guild config: %w", err)
	}
	if cfg.SuggestionChannel == "" {
		return nil, ErrNotConfigured
	}

	length := utf8.RuneCountInString(content)
	if length < cfg.MinLength || length > cfg.MaxLength {
		return nil, &LengthRejection{Min: cfg.MinLength, Max: cfg.MaxLength, Actual: length}
	}

	now := w.now()
	if cfg.CooldownSeconds > 0 {
		stats, err := w.store.UserStats(ctx, authorID)
		if err != nil {
			return nil, fmt.Errorf("load user stats: %w", err)
		}
		cooldown := time.Duration(cfg.CooldownSeconds) * time.Second
		if elapsed := now.Sub(stats.LastSuggestTS); elapsed < cooldown {
			remaining := (cooldown - elapsed).Truncate(time.Second)
			return nil, &CooldownRejection{Remaining: remaining}
		}
	}

	id, err := w.store.NextSuggestionID(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("allocate suggestion id: %w", err)
	}

	rec := &Record{
		GuildID:   guildID,
		ID:        id,
		AuthorID:  authorID,
		Content:   content,
		ImageURL:  imageURL,
		Status:    StatusPending,
		CreatedAt: now,
		Upvotes:   []string{},
		Downvotes: []string{},
	}

	channelID, messageID, err := w.notifier.PublishSuggestion(ctx, cfg, rec)
	if err != nil {
		return nil, fmt.Errorf("publish suggestion: %w", err)
	}
	rec.ChannelID = channelID
	rec.MessageID = messageID

	if err := w.store.InsertSuggestion(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist suggestion %d: %w", id, err)
	}
	if err := w.store.RecordSubmission(ctx, authorID, now); err != nil {
		w.log.Warnf("Failed to stamp submission stats for user %s: %v", authorID, err)
	}
	if err := w.notifier.LogEvent(ctx, cfg, "submitted", rec); err != nil {
		w.log.Warnf("Failed to write audit entry for suggestion %d: %v", id, err)
	}

	w.log.Infow("Suggestion submitted", "guild", guildID, "id", id, "author", authorID)
	return rec, nil
}

// ToggleVote applies an up/down toggle for one voter. Same direction twice
// retracts the vote; the opposite direction switches it. The mutation runs as
// one conditional update in the store, so concurrent toggles never lose a
// voter's change.
func (w *Workflow) ToggleVote(ctx context.Context, guildID string, id int64, voterID string, dir Direction) (*VoteOutcome, error) {
	cfg, err := w.store.GuildConfig(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("load guild config: %w", err)
	}

	rec, err := w.store.Suggestion(ctx, guildID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load suggestion %d: %w", id, err)
	}
	if rec.Status != StatusPending {
		return nil, ErrAlreadyDecided
	}
	if rec.AuthorID == voterID {
		return nil, ErrSelfVote
	}

	updated, err := w.store.ToggleVote(ctx, guildID, id, voterID, dir)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// The record was decided between our read and the write.
			return nil, ErrAlreadyDecided
		}
		return nil, fmt.Errorf("toggle vote on suggestion %d: %w", id, err)
	}

	if err := w.notifier.RefreshVotes(ctx, updated); err != nil {
		w.log.Warnf("Failed to refresh vote display for suggestion %d: %v", id, err)
	}

	outcome := &VoteOutcome{
		Record:    updated,
		Upvotes:   updated.UpvoteCount(),
		Downvotes: updated.DownvoteCount(),
	}

	if outcome.Upvotes >= cfg.UpvoteThreshold && !updated.Escalated {
		outcome.Escalated = w.escalate(ctx, cfg, updated)
	}
	return outcome, nil
}

// escalate forwards the suggestion to staff review. The store-side claim
// guarantees only one of any number of concurrent voters gets to post.
func (w *Workflow) escalate(ctx context.Context, cfg *GuildConfig, rec *Record) bool {
	won, err := w.store.ClaimEscalation(ctx, rec.GuildID, rec.ID)
	if err != nil {
		w.log.Errorf("Failed to claim escalation for suggestion %d: %v", rec.ID, err)
		return false
	}
	if !won {
		return false
	}
	rec.Escalated = true

	if cfg.StaffChannel == "" {
		w.log.Infow("Suggestion reached threshold but no staff channel is set", "guild", rec.GuildID, "id", rec.ID)
		return true
	}

	messageID, err := w.notifier.PublishStaffReview(ctx, cfg, rec)
	if err != nil {
		w.log.Errorf("Failed to post staff review for suggestion %d: %v", rec.ID, err)
		return true
	}
	if err := w.store.SetStaffMessage(ctx, rec.GuildID, rec.ID, messageID); err != nil {
		w.log.Errorf("Failed to record staff message for suggestion %d: %v", rec.ID, err)
		return true
	}
	rec.StaffMessageID = messageID
	w.log.Infow("Suggestion escalated to staff", "guild", rec.GuildID, "id", rec.ID)
	return true
}

// Authorize reports whether the actor may decide suggestions in this guild.
func (w *Workflow) Authorize(ctx context.Context, guildID string, actor Actor) error {
	cfg, err := w.store.GuildConfig(ctx, guildID)
	if err != nil {
		return fmt.Errorf("load guild config: %w", err)
	}
	if !actor.CanModerate(cfg) {
		return ErrForbidden
	}
	return nil
}

// Decide applies a staff verdict. The state transition commits first; the
// embed edit, author DM, scheduled cleanup and audit entry are each a single
// best-effort attempt.
func (w *Workflow) Decide(ctx context.Context, guildID string, id int64, actor Actor, verdict Status, reason string) (*Record, error) {
	if verdict != StatusApproved && verdict != StatusDenied {
		return nil, fmt.Errorf("invalid verdict %q", verdict)
	}

	cfg, err := w.store.GuildConfig(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("load guild config: %w", err)
	}
	if !actor.CanModerate(cfg) {
		return nil, ErrForbidden
	}

	rec, err := w.store.Decide(ctx, guildID, id, verdict, actor.ID, reason, w.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if existing, gerr := w.store.Suggestion(ctx, guildID, id); gerr == nil && existing.Status != StatusPending {
				return nil, ErrAlreadyDecided
			}
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("decide suggestion %d: %w", id, err)
	}

	if err := w.notifier.PublishDecision(ctx, cfg, rec); err != nil {
		w.log.Warnf("Failed to update public message for suggestion %d: %v", id, err)
	}
	if verdict == StatusDenied && cfg.AutoDeleteDenied {
		w.notifier.ScheduleDeletion(rec.ChannelID, rec.MessageID, w.deleteGrace)
	}
	if cfg.DMNotifications {
		if err := w.notifier.NotifyAuthor(ctx, rec); err != nil {
			// Authors may block DMs; not the moderator's problem.
			w.log.Debugf("Failed to DM author of suggestion %d: %v", id, err)
		}
	}
	if err := w.notifier.LogEvent(ctx, cfg, "decided", rec); err != nil {
		w.log.Warnf("Failed to write audit entry for suggestion %d: %v", id, err)
	}

	w.log.Infow("Suggestion decided", "guild", guildID, "id", id, "verdict", verdict, "by", actor.ID)
	return rec, nil
}

// Configure applies a partial guild configuration update.
func (w *Workflow) Configure(ctx context.Context, guildID string, patch ConfigPatch) error {
	if patch.UpvoteThreshold != nil && *patch.UpvoteThreshold < 1 {
		return fmt.Errorf("upvote threshold must be positive, got %d", *patch.UpvoteThreshold)
	}
	if patch.CooldownSeconds != nil && *patch.CooldownSeconds < 0 {
		return fmt.Errorf("cooldown must be non-negative, got %d", *patch.CooldownSeconds)
	}
	if patch.MinLength != nil && patch.MaxLength != nil && *patch.MinLength > *patch.MaxLength {
		return fmt.Errorf("min length %d exceeds max length %d", *patch.MinLength, *patch.MaxLength)
	}
	return w.store.UpdateGuildConfig(ctx, guildID, patch)
}

func (w *Workflow) AddModeratorRole(ctx context.Context, guildID, roleID string) error {
	return w.store.AddModeratorRole(ctx, guildID, roleID)
}

func (w *Workflow) RemoveModeratorRole(ctx context.Context, guildID, roleID string) error {
	return w.store.RemoveModeratorRole(ctx, guildID, roleID)
}
