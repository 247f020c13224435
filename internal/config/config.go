package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/zap"
)

var Logger *zap.SugaredLogger

type configuration struct {
	BotStatus string

	DiscordToken string
	GuildID      string // Empty registers commands globally

	MongoURI      string
	MongoDatabase string

	SentryDSN string
	AppEnv    string
}

var Configuration *configuration

// ConfigDir is where per-cog json5 config files live.
var ConfigDir = "configs"

func Load() {
	slogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Logger = slogger.Sugar()

	err = godotenv.Load()
	if err != nil {
		Logger.Infoln("No .env file found, relying on environment variables")
	}

	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		ConfigDir = dir
	}

	Configuration = &configuration{
		BotStatus:     os.Getenv("bot_activity_type"),
		DiscordToken:  os.Getenv("DISCORD_TOKEN"),
		GuildID:       os.Getenv("GUILD_ID"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "sunnybot"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		AppEnv:        getEnv("APP_ENV", "development"),
	}

	if Configuration.DiscordToken == "" {
		Logger.Panic("DISCORD_TOKEN is required")
	}
}

// LoadConfig reads a json5 feature config by file name from ConfigDir.
func LoadConfig(name string, out any) error {
	path := filepath.Join(ConfigDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json5.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
