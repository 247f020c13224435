package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"sunnybot/internal/config"
	"sunnybot/internal/suggest"
)

// EmbedColors are the per-status accent colors, usually parsed from the cog's
// json5 config.
type EmbedColors struct {
	Pending  int
	Approved int
	Denied   int
}

// Notifier posts and edits the suggestion-related messages. All delivery here
// is single-attempt; callers decide whether a failure matters.
type Notifier struct {
	session *discordgo.Session
	colors  EmbedColors
}

func NewNotifier(session *discordgo.Session, colors EmbedColors) *Notifier {
	return &Notifier{session: session, colors: colors}
}

func (n *Notifier) PublishSuggestion(ctx context.Context, cfg *suggest.GuildConfig, rec *suggest.Record) (string, string, error) {
	msg, err := n.session.ChannelMessageSendComplex(cfg.SuggestionChannel, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{n.suggestionEmbed(cfg, rec)},
		Components: voteComponents(rec),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", "", fmt.Errorf("send suggestion message: %w", err)
	}
	return msg.ChannelID, msg.ID, nil
}

func (n *Notifier) RefreshVotes(ctx context.Context, rec *suggest.Record) error {
	edit := discordgo.NewMessageEdit(rec.ChannelID, rec.MessageID)
	components := voteComponents(rec)
	edit.Components = &components
	_, err := n.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit vote display: %w", err)
	}
	return nil
}

func (n *Notifier) PublishStaffReview(ctx context.Context, cfg *suggest.GuildConfig, rec *suggest.Record) (string, error) {
	embed := n.staffEmbed(rec)
	msg, err := n.session.ChannelMessageSendComplex(cfg.StaffChannel, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: reviewComponents(rec),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send staff review message: %w", err)
	}
	return msg.ID, nil
}

func (n *Notifier) PublishDecision(ctx context.Context, cfg *suggest.GuildConfig, rec *suggest.Record) error {
	embed := n.suggestionEmbed(cfg, rec)
	none := []discordgo.MessageComponent{}

	edit := discordgo.NewMessageEdit(rec.ChannelID, rec.MessageID)
	edit.Embeds = &[]*discordgo.MessageEmbed{embed}
	edit.Components = &none
	if _, err := n.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit public message: %w", err)
	}

	// Neutralize the staff controls as well; losing this edit is harmless
	// since decided records reject every further review click anyway.
	if rec.StaffMessageID != "" && cfg.StaffChannel != "" {
		staffEdit := discordgo.NewMessageEdit(cfg.StaffChannel, rec.StaffMessageID)
		staffEdit.Embeds = &[]*discordgo.MessageEmbed{n.staffEmbed(rec)}
		staffEdit.Components = &none
		if _, err := n.session.ChannelMessageEditComplex(staffEdit, discordgo.WithContext(ctx)); err != nil {
			config.Logger.Warnf("Failed to edit staff message for suggestion %d: %v", rec.ID, err)
		}
	}
	return nil
}

func (n *Notifier) NotifyAuthor(ctx context.Context, rec *suggest.Record) error {
	channel, err := n.session.UserChannelCreate(rec.AuthorID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open DM channel: %w", err)
	}
	embed := n.dmEmbed(rec)
	if _, err := n.session.ChannelMessageSendEmbed(channel.ID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send DM: %w", err)
	}
	return nil
}

func (n *Notifier) ScheduleDeletion(channelID, messageID string, after time.Duration) {
	time.AfterFunc(after, func() {
		if err := n.session.ChannelMessageDelete(channelID, messageID); err != nil {
			config.Logger.Warnf("Failed to delete message %s: %v", messageID, err)
		}
	})
}

func (n *Notifier) LogEvent(ctx context.Context, cfg *suggest.GuildConfig, event string, rec *suggest.Record) error {
	if cfg.LogChannel == "" {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Suggestion #%d %s", rec.ID, event),
		Color: n.statusColor(rec.Status),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: mention(rec.AuthorID), Inline: true},
			{Name: "Status", Value: statusLabel(rec.Status), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if rec.DecidedBy != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Decided by", Value: mention(rec.DecidedBy), Inline: true,
		})
	}
	if rec.Reason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Reason", Value: rec.Reason,
		})
	}

	if _, err := n.session.ChannelMessageSendEmbed(cfg.LogChannel, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send audit entry: %w", err)
	}
	return nil
}

func (n *Notifier) suggestionEmbed(cfg *suggest.GuildConfig, rec *suggest.Record) *discordgo.MessageEmbed {
	author := mention(rec.AuthorID)
	if cfg.Anonymous {
		author = "Anonymous"
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Suggestion #%d", rec.ID),
		Description: rec.Content,
		Color:       n.statusColor(rec.Status),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: author, Inline: true},
			{Name: "Status", Value: statusLabel(rec.Status), Inline: true},
		},
		Timestamp: rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if rec.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: rec.ImageURL}
	}
	if rec.Status != suggest.StatusPending {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Reviewed by", Value: mention(rec.DecidedBy), Inline: true,
		})
		if rec.Reason != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Reason", Value: rec.Reason,
			})
		}
	}
	return embed
}

// staffEmbed always names the author, even for anonymous guilds; staff review
// needs to know who is submitting.
func (n *Notifier) staffEmbed(rec *suggest.Record) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Suggestion #%d is up for review", rec.ID),
		Description: rec.Content,
		Color:       n.statusColor(rec.Status),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: mention(rec.AuthorID), Inline: true},
			{Name: "Votes", Value: fmt.Sprintf("👍 %d / 👎 %d", rec.UpvoteCount(), rec.DownvoteCount()), Inline: true},
			{Name: "Status", Value: statusLabel(rec.Status), Inline: true},
		},
		Timestamp: rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if rec.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: rec.ImageURL}
	}
	return embed
}

func (n *Notifier) dmEmbed(rec *suggest.Record) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Your suggestion #%d was %s", rec.ID, statusLabel(rec.Status)),
		Description: rec.Content,
		Color:       n.statusColor(rec.Status),
	}
	if rec.Reason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Reason", Value: rec.Reason})
	}
	return embed
}

func (n *Notifier) statusColor(status suggest.Status) int {
	switch status {
	case suggest.StatusApproved:
		return n.colors.Approved
	case suggest.StatusDenied:
		return n.colors.Denied
	default:
		return n.colors.Pending
	}
}

func statusLabel(status suggest.Status) string {
	switch status {
	case suggest.StatusApproved:
		return "Approved"
	case suggest.StatusDenied:
		return "Denied"
	default:
		return "Pending"
	}
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

func voteComponents(rec *suggest.Record) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    fmt.Sprintf("%d", rec.UpvoteCount()),
				Emoji:    &discordgo.ComponentEmoji{Name: "👍"},
				Style:    discordgo.SecondaryButton,
				CustomID: VoteCustomID(suggest.VoteUp, rec.ID),
			},
			discordgo.Button{
				Label:    fmt.Sprintf("%d", rec.DownvoteCount()),
				Emoji:    &discordgo.ComponentEmoji{Name: "👎"},
				Style:    discordgo.SecondaryButton,
				CustomID: VoteCustomID(suggest.VoteDown, rec.ID),
			},
		}},
	}
}

func reviewComponents(rec *suggest.Record) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Approve",
				Style:    discordgo.SuccessButton,
				CustomID: ReviewCustomID(suggest.StatusApproved, rec.ID),
			},
			discordgo.Button{
				Label:    "Deny",
				Style:    discordgo.DangerButton,
				CustomID: ReviewCustomID(suggest.StatusDenied, rec.ID),
			},
		}},
	}
}
