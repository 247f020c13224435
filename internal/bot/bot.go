package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"sunnybot/internal/cog"
	"sunnybot/internal/config"
	"sunnybot/internal/discord"
	"sunnybot/internal/storage"
)

func Run() {
	config.Load()

	if dsn := config.Configuration.SentryDSN; dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: config.Configuration.AppEnv,
		})
		if err != nil {
			config.Logger.Fatal("sentry.Init: ", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	client, db, err := storage.Connect(ctx, config.Configuration.MongoURI, config.Configuration.MongoDatabase)
	if err != nil {
		sentry.CaptureException(err)
		config.Logger.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			config.Logger.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	store := storage.NewStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		config.Logger.Fatal("Failed to ensure MongoDB indexes: ", err)
	}

	discord.Init()
	initCogs(store)
	discord.InitConnection()

	defer discord.Session.Close()

	config.Logger.Infoln("Bot is running.")
	fmt.Println("Bot is running")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
}

func initCogs(store *storage.Store) {

	if discord.Session == nil {
		config.Logger.Panic("Tried to init cogs before initializing discord session")
	}

	cogList := []cog.Cog{
		&cog.SuggestionCog{
			ConfigName: "suggestion.json5",
			Session:    discord.Session,
			Store:      store,
		},
	}

	config.Logger.Infoln("Loading cogs ...")
	for _, c := range cogList {
		err := c.Init()
		if err != nil {
			config.Logger.Fatal("Error initializing cog:", c.Name(), err)
		}
	}
}
