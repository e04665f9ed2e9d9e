package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env            string
	Port           string
	DatabaseURL    string // postgres:// DSN or sqlite file path
	RedisURL       string // optional; empty disables the leaderboard cache
	DiscordToken   string // bot token; empty runs the HTTP surface only
	AdminKey       string // gates bonus/log-channel writes on the HTTP surface
	LeaderboardMax int    // inclusive upper clamp for leaderboard limits
}

const defaultLeaderboardMax = 25

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}
	dbURL := viper.GetString("DATABASE_URL")
	if dbURL == "" {
		dbURL = "invitewatch.db"
	}
	lbMax := viper.GetInt("LEADERBOARD_MAX")
	if lbMax <= 0 {
		lbMax = defaultLeaderboardMax
	}

	return &Config{
		Env:            env,
		Port:           port,
		DatabaseURL:    dbURL,
		RedisURL:       viper.GetString("REDIS_URL"),
		DiscordToken:   viper.GetString("DISCORD_TOKEN"),
		AdminKey:       viper.GetString("ADMIN_KEY"),
		LeaderboardMax: lbMax,
	}, nil
}
