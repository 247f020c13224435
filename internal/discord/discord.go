package discord

import (
	"sunnybot/internal/config"

	"github.com/bwmarrin/discordgo"
)

var Session *discordgo.Session

func Init() {
	var err error
	Session, err = discordgo.New("Bot " + config.Configuration.DiscordToken)
	if err != nil {
		config.Logger.Errorln("Failed while creating discordgo session ", err)
	}
	Session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
}

func InitConnection() {
	if err := Session.Open(); err != nil {
		config.Logger.Fatal("Failed to open discord connection: ", err)
	}
	if status := config.Configuration.BotStatus; status != "" {
		if err := Session.UpdateCustomStatus(status); err != nil {
			config.Logger.Warnf("Failed to set bot status: %v", err)
		}
	}
}
