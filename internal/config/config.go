// Package config reads the bot's settings from the environment, with a .env
// file picked up for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath      = "./data/db.sqlite3"
	defaultMenuTimeout = 180 * time.Second
)

// Config is the process configuration.
type Config struct {
	// DBPath is where the SQLite database lives.
	DBPath string

	// DiscordToken authenticates the message client.
	DiscordToken string

	// HypixelAPIKey authenticates Hypixel API calls. May be empty; role
	// requests then fail at the API boundary.
	HypixelAPIKey string

	// MenuTimeout is how long an interactive menu stays valid without
	// interactions.
	MenuTimeout time.Duration

	// MaintainerID is the Discord account error reports point users at.
	MaintainerID uint64

	// HOBMaxMessages caps how many messages the Hall of Bingo overview may
	// span.
	HOBMaxMessages int
}

// Load builds the configuration from the environment. A missing .env file is
// not an error; a missing Discord token is.
func Load() (Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return Config{}, fmt.Errorf("environment variable DISCORD_TOKEN is not set")
	}

	apiKey := os.Getenv("HYPIXEL_API_KEY")
	if apiKey == "" {
		slog.Warn("no Hypixel API key provided, role request functionality will not work")
	}

	cfg := Config{
		DBPath:         defaultDBPath,
		DiscordToken:   token,
		HypixelAPIKey:  apiKey,
		MenuTimeout:    defaultMenuTimeout,
		HOBMaxMessages: 10,
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DBPath = path
	}
	if raw := os.Getenv("MENU_TIMEOUT_SECS"); raw != "" {
		secs, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MENU_TIMEOUT_SECS %q: %w", raw, err)
		}
		cfg.MenuTimeout = time.Duration(secs) * time.Second
	}
	if raw := os.Getenv("BOT_MAINTAINER_ID"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BOT_MAINTAINER_ID %q: %w", raw, err)
		}
		cfg.MaintainerID = id
	}
	if raw := os.Getenv("HOB_MAX_MESSAGES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid HOB_MAX_MESSAGES %q", raw)
		}
		cfg.HOBMaxMessages = n
	}
	return cfg, nil
}
