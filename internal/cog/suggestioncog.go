package cog

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"sunnybot/internal/config"
	"sunnybot/internal/discord"
	"sunnybot/internal/suggest"
	"sunnybot/internal/util"
)

type SuggestionConfig struct {
	Enabled      bool `json:"Enabled"`
	Embed_colors struct {
		Pending  string `json:"Pending"`
		Approved string `json:"Approved"`
		Denied   string `json:"Denied"`
	} `json:"Embed_colors"`
}

type SuggestionCog struct {
	ConfigName string

	Session *discordgo.Session
	Store   suggest.Store

	Config   *SuggestionConfig
	workflow *suggest.Workflow
}

func (m *SuggestionCog) Name() string {
	return "SuggestionCog"
}

func (m *SuggestionCog) Init() error {
	var suggestionConfig SuggestionConfig
	if err := config.LoadConfig(m.ConfigName, &suggestionConfig); err != nil {
		return err
	}
	m.Config = &suggestionConfig

	if !suggestionConfig.Enabled {
		config.Logger.Infoln("Suggestion feature disabled in configs")
		return nil
	}

	colors := discord.EmbedColors{
		Pending:  util.ParseHexColor(suggestionConfig.Embed_colors.Pending, 0x5865F2),
		Approved: util.ParseHexColor(suggestionConfig.Embed_colors.Approved, 0x57F287),
		Denied:   util.ParseHexColor(suggestionConfig.Embed_colors.Denied, 0xED4245),
	}
	notifier := discord.NewNotifier(m.Session, colors)
	m.workflow = suggest.NewWorkflow(m.Store, notifier, config.Logger)

	m.Session.AddHandlerOnce(func(s *discordgo.Session, r *discordgo.Ready) {
		config.Logger.Infoln("Bot is ready, registering suggestion commands...")
		if err := m.registerCommands(); err != nil {
			config.Logger.Errorf("Failed to register suggestion commands: %v", err)
		}
		m.logPendingCounts(r)
	})

	m.Session.AddHandler(m.HandleInteraction)

	config.Logger.Infoln(m.Name(), "initialized!")
	return nil
}

func (m *SuggestionCog) registerCommands() error {
	minOne := float64(1)
	adminPerms := int64(discordgo.PermissionAdministrator)

	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "suggest",
			Description: "Submit a suggestion to the crew",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Your suggestion",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "image",
					Description: "Optional image shown on the suggestion",
					Required:    false,
				},
			},
		},
		{
			Name:        "suggestinfo",
			Description: "Look up a suggestion by its number",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "id",
					Description: "Suggestion number",
					Required:    true,
					MinValue:    &minOne,
				},
			},
		},
		{
			Name:                     "suggestadmin",
			Description:              "Configure the suggestion system",
			DefaultMemberPermissions: &adminPerms,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "channel",
					Description: "Set the public suggestion channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "channel",
							Description:  "Channel suggestions are posted to",
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
							Required:     true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "staffchannel",
					Description: "Set the staff review channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "channel",
							Description:  "Channel escalated suggestions are forwarded to",
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
							Required:     true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "logchannel",
					Description: "Set the audit log channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "channel",
							Description:  "Channel submissions and decisions are logged to",
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
							Required:     true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "threshold",
					Description: "Set how many upvotes forward a suggestion to staff",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "upvotes",
							Description: "Upvote count",
							Required:    true,
							MinValue:    &minOne,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "cooldown",
					Description: "Set the per-user submission cooldown",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "seconds",
							Description: "Cooldown in seconds, 0 disables it",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "length",
					Description: "Set the suggestion length bounds",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "min",
							Description: "Minimum length in characters",
							Required:    true,
							MinValue:    &minOne,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "max",
							Description: "Maximum length in characters",
							Required:    true,
							MinValue:    &minOne,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "anonymous",
					Description: "Hide authors on public suggestion embeds",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "enabled",
							Description: "Whether suggestions are posted anonymously",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "dmnotify",
					Description: "DM authors when their suggestion is decided",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "enabled",
							Description: "Whether authors get a DM on decision",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "autodelete",
					Description: "Delete denied suggestions shortly after the decision",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "enabled",
							Description: "Whether denied messages are removed",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "modrole",
					Description: "Manage roles allowed to decide suggestions",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "add",
							Description: "Allow a role to decide suggestions",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionRole,
									Name:        "role",
									Description: "Moderator role",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "remove",
							Description: "Stop a role from deciding suggestions",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionRole,
									Name:        "role",
									Description: "Moderator role",
									Required:    true,
								},
							},
						},
					},
				},
			},
		},
	}

	for _, command := range commands {
		_, err := m.Session.ApplicationCommandCreate(m.Session.State.User.ID, config.Configuration.GuildID, command)
		if err != nil {
			config.Logger.Errorf("Failed to register command '%s': %v", command.Name, err)
			return err
		}
		config.Logger.Infoln("Succesfully registered command: ", command.Name)
	}
	return nil
}

// logPendingCounts is the restart rehydration check: controls carry only the
// suggestion id, so a click on any message posted before the restart resolves
// against the stored record. This just surfaces how many are still open.
func (m *SuggestionCog) logPendingCounts(r *discordgo.Ready) {
	ctx := context.Background()
	for _, guild := range r.Guilds {
		pending, err := m.workflow.PendingSuggestions(ctx, guild.ID)
		if err != nil {
			config.Logger.Warnf("Failed to list pending suggestions for guild %s: %v", guild.ID, err)
			continue
		}
		if len(pending) > 0 {
			config.Logger.Infof("Guild %s has %d pending suggestions with live controls", guild.ID, len(pending))
		}
	}
}

func (m *SuggestionCog) HandleInteraction(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if m.workflow == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			config.Logger.Errorf("Panic while handling interaction: %v", r)
		}
	}()

	log := config.Logger.With("interaction", uuid.NewString())

	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		if !m.isCommandRoutable(interaction) {
			return
		}
		data := interaction.ApplicationCommandData()
		switch data.Name {
		case "suggest":
			m.handleSubmit(session, interaction, data)
		case "suggestinfo":
			m.handleInfo(session, interaction, data)
		case "suggestadmin":
			m.handleAdmin(session, interaction, data)
		}
	case discordgo.InteractionMessageComponent:
		ctrl, ok := discord.ParseControlID(interaction.MessageComponentData().CustomID)
		if !ok || interaction.Member == nil {
			return
		}
		switch ctrl.Kind {
		case discord.ControlVote:
			m.handleVote(session, interaction, ctrl)
		case discord.ControlReview:
			m.handleReviewButton(session, interaction, ctrl)
		}
	case discordgo.InteractionModalSubmit:
		ctrl, ok := discord.ParseControlID(interaction.ModalSubmitData().CustomID)
		if !ok || ctrl.Kind != discord.ControlDecide || interaction.Member == nil {
			return
		}
		m.handleDecision(session, interaction, ctrl)
	default:
		return
	}

	log.Debugw("Interaction handled", "type", interaction.Type, "guild", interaction.GuildID)
}

// isCommandRoutable filters out the commands of other cogs and DM invocations.
func (m *SuggestionCog) isCommandRoutable(interaction *discordgo.InteractionCreate) bool {
	name := interaction.ApplicationCommandData().Name
	if name != "suggest" && name != "suggestinfo" && name != "suggestadmin" {
		return false
	}
	if interaction.GuildID == "" || interaction.Member == nil {
		_ = discord.RespondEphemeral(m.Session, interaction.Interaction, "This command only works inside a server.")
		return false
	}
	return true
}

func (m *SuggestionCog) handleSubmit(session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx := context.Background()
	text := data.Options[0].StringValue()
	imageURL := attachmentURL(data)

	rec, err := m.workflow.Submit(ctx, interaction.GuildID, interaction.Member.User.ID, text, imageURL)
	if err != nil {
		m.respondRejection(session, interaction, err)
		return
	}

	reply := fmt.Sprintf("Suggestion #%d submitted to <#%s>!", rec.ID, rec.ChannelID)
	if err := discord.RespondEphemeral(session, interaction.Interaction, reply); err != nil {
		config.Logger.Warnf("Failed to confirm submission %d: %v", rec.ID, err)
	}
}

func (m *SuggestionCog) handleInfo(session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx := context.Background()
	id := data.Options[0].IntValue()

	rec, err := m.workflow.Suggestion(ctx, interaction.GuildID, id)
	if err != nil {
		m.respondRejection(session, interaction, err)
		return
	}

	info := fmt.Sprintf("Suggestion #%d by <@%s> — %s · 👍 %d / 👎 %d",
		rec.ID, rec.AuthorID, rec.Status, rec.UpvoteCount(), rec.DownvoteCount())
	if rec.DecidedBy != "" {
		info += fmt.Sprintf(" · decided by <@%s>", rec.DecidedBy)
	}
	if rec.Reason != "" {
		info += fmt.Sprintf(" · reason: %s", rec.Reason)
	}
	_ = discord.RespondEphemeral(session, interaction.Interaction, info)
}

func (m *SuggestionCog) handleAdmin(session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx := context.Background()
	guildID := interaction.GuildID
	sub := data.Options[0]

	var (
		err   error
		reply string
	)

	switch sub.Name {
	case "channel":
		channelID := sub.Options[0].ChannelValue(nil).ID
		err = m.workflow.Configure(ctx, guildID, suggest.ConfigPatch{SuggestionChannel: &channelID})
		reply = fmt.Sprintf("Suggestions will be posted to <#%s>.", channelID)
	case "staffchannel":
		channelID := sub.Options[0].ChannelValue(nil).ID
		err = m.workflow.Configure(ctx, guildID, suggest.ConfigPatch{StaffChannel: &channelID})
		reply = fmt.Sprintf("Escalated suggestions will be forwarded to <#%s>.", channelID)
	case "logchannel":
		channelID := sub.Options[0].ChannelValue(nil).ID
		err = m.workflow.Configure(ctx, guildID, suggest.ConfigPatch{LogChannel: &channelID})
		reply = fmt.Sprintf("Suggestion activity will be logged to <#%s>.", channelID)
	case "threshold":
		threshold := int(sub.Options[0].IntValue())
		err = m.workflow.Configure(ctx, guildID, suggest.ConfigPatch{UpvoteThreshold: &threshold})
		reply = fmt.Sprintf("Suggestions now need %d upvotes to reach staff.", threshold)
	case "cooldown":
		seconds := int(sub.Options[0].IntValue())
		err = m.workflow.Configure(ctx, guildID, suggest.ConfigPatch{CooldownSeconds: &seconds})
		reply = fmt.Sprintf("Submission cooldown set to %d seconds.", seconds)
	case "length":
		minLen := int(sub.Options[0].IntValue())
		maxLen := int(sub.Options[1].IntValue())
		err = m.workflow.Configure(ctx, guildID, suggest.ConfigPatch{MinLength: &minLen, MaxLength: &maxLen})
		reply = fmt.Sprintf("Suggestions must now be between %d and %d characters.", minLen, maxLen)
	case "anonymous":
		enabled := sub.Options[0].BoolValue()
		err = m.workflow.Configure(ctx, guildID, suggest.ConfigPatch{Anonymous: &enabled})
		reply = fmt.Sprintf("Anonymous suggestions: %t.", enabled)
	case "dmnotify":
		enabled := sub.Options[0].BoolValue()
		err = m.workflow.Configure(ctx, guildID, suggest.ConfigPatch{DMNotifications: &enabled})
		reply = fmt.Sprintf("Decision DMs: %t.", enabled)
	case "autodelete":
		enabled := sub.Options[0].BoolValue()
		err = m.workflow.Configure(ctx, guildID, suggest.ConfigPatch{AutoDeleteDenied: &enabled})
		reply = fmt.Sprintf("Auto-delete of denied suggestions: %t.", enabled)
	case "modrole":
		action := sub.Options[0]
		roleID := action.Options[0].RoleValue(nil, "").ID
		if action.Name == "add" {
			err = m.workflow.AddModeratorRole(ctx, guildID, roleID)
			reply = fmt.Sprintf("<@&%s> can now decide suggestions.", roleID)
		} else {
			err = m.workflow.RemoveModeratorRole(ctx, guildID, roleID)
			reply = fmt.Sprintf("<@&%s> can no longer decide suggestions.", roleID)
		}
	default:
		return
	}

	if err != nil {
		config.Logger.Errorf("Failed to apply admin setting %s for guild %s: %v", sub.Name, guildID, err)
		_ = discord.RespondEphemeral(session, interaction.Interaction, adminErrorMessage(err))
		return
	}
	_ = discord.RespondEphemeral(session, interaction.Interaction, reply)
}

func (m *SuggestionCog) handleVote(session *discordgo.Session, interaction *discordgo.InteractionCreate, ctrl discord.Control) {
	ctx := context.Background()

	_, err := m.workflow.ToggleVote(ctx, interaction.GuildID, ctrl.SuggestionID, interaction.Member.User.ID, ctrl.Direction)
	if err != nil {
		m.respondRejection(session, interaction, err)
		return
	}

	// The public embed was already edited; just acknowledge the click.
	if err := discord.AcknowledgeUpdate(session, interaction.Interaction); err != nil {
		config.Logger.Warnf("Failed to acknowledge vote on suggestion %d: %v", ctrl.SuggestionID, err)
	}
}

func (m *SuggestionCog) handleReviewButton(session *discordgo.Session, interaction *discordgo.InteractionCreate, ctrl discord.Control) {
	ctx := context.Background()

	if err := m.workflow.Authorize(ctx, interaction.GuildID, actorFromMember(interaction.Member)); err != nil {
		m.respondRejection(session, interaction, err)
		return
	}

	verb := "Approve"
	if ctrl.Verdict == suggest.StatusDenied {
		verb = "Deny"
	}
	err := discord.RespondModal(session, interaction.Interaction, &discordgo.InteractionResponseData{
		CustomID: discord.DecideCustomID(ctrl.Verdict, ctrl.SuggestionID),
		Title:    fmt.Sprintf("%s suggestion #%d", verb, ctrl.SuggestionID),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    "reason",
					Label:       "Reason (optional)",
					Style:       discordgo.TextInputParagraph,
					Required:    false,
					MaxLength:   500,
					Placeholder: "Shared with the author",
				},
			}},
		},
	})
	if err != nil {
		config.Logger.Warnf("Failed to open decision modal for suggestion %d: %v", ctrl.SuggestionID, err)
	}
}

func (m *SuggestionCog) handleDecision(session *discordgo.Session, interaction *discordgo.InteractionCreate, ctrl discord.Control) {
	ctx := context.Background()
	reason := modalReason(interaction.ModalSubmitData())

	rec, err := m.workflow.Decide(ctx, interaction.GuildID, ctrl.SuggestionID, actorFromMember(interaction.Member), ctrl.Verdict, reason)
	if err != nil {
		m.respondRejection(session, interaction, err)
		return
	}

	reply := fmt.Sprintf("Suggestion #%d %s.", rec.ID, rec.Status)
	_ = discord.RespondEphemeral(session, interaction.Interaction, reply)
}

func modalReason(data discordgo.ModalSubmitInteractionData) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			if input, ok := component.(*discordgo.TextInput); ok && input.CustomID == "reason" {
				return input.Value
			}
		}
	}
	return ""
}

// attachmentURL resolves the optional image option; attachment options carry
// only the attachment id, the file itself sits in the resolved data.
func attachmentURL(data discordgo.ApplicationCommandInteractionData) string {
	if data.Resolved == nil {
		return ""
	}
	for _, opt := range data.Options {
		if opt.Type != discordgo.ApplicationCommandOptionAttachment {
			continue
		}
		if id, ok := opt.Value.(string); ok {
			if attachment, ok := data.Resolved.Attachments[id]; ok {
				return attachment.URL
			}
		}
	}
	return ""
}

func actorFromMember(member *discordgo.Member) suggest.Actor {
	return suggest.Actor{
		ID:            member.User.ID,
		Administrator: member.Permissions&discordgo.PermissionAdministrator != 0,
		RoleIDs:       member.Roles,
	}
}

func (m *SuggestionCog) respondRejection(session *discordgo.Session, interaction *discordgo.InteractionCreate, err error) {
	if respondErr := discord.RespondEphemeral(session, interaction.Interaction, rejectionMessage(err)); respondErr != nil {
		config.Logger.Warnf("Failed to deliver rejection reply: %v", respondErr)
	}
}

// rejectionMessage maps workflow rejections to the short user-facing replies.
func rejectionMessage(err error) string {
	var lengthErr *suggest.LengthRejection
	var cooldownErr *suggest.CooldownRejection

	switch {
	case errors.Is(err, suggest.ErrNotConfigured):
		return "Suggestions are not set up on this server yet."
	case errors.As(err, &lengthErr):
		return fmt.Sprintf("Your suggestion is %d characters long; it must be between %d and %d.",
			lengthErr.Actual, lengthErr.Min, lengthErr.Max)
	case errors.As(err, &cooldownErr):
		return fmt.Sprintf("You are on cooldown. Try again in %s.", cooldownErr.Remaining)
	case errors.Is(err, suggest.ErrNotFound):
		return "That suggestion does not exist."
	case errors.Is(err, suggest.ErrAlreadyDecided):
		return "This suggestion has already been decided."
	case errors.Is(err, suggest.ErrSelfVote):
		return "You cannot vote on your own suggestion."
	case errors.Is(err, suggest.ErrForbidden):
		return "You need to be a moderator to do that."
	default:
		config.Logger.Errorf("Unexpected workflow error: %v", err)
		sentry.CaptureException(err)
		return "Something went wrong, please try again later."
	}
}

func adminErrorMessage(err error) string {
	return fmt.Sprintf("Could not apply that setting: %v", err)
}
