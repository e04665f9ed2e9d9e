package main

import (
	"os"
	"os/signal"
	"syscall"

	"invitewatch-backend/internal/app"
	"invitewatch-backend/internal/attribution"
	"invitewatch-backend/internal/config"
	"invitewatch-backend/internal/database"
	"invitewatch-backend/internal/discord"
	"invitewatch-backend/internal/settings"
	"invitewatch-backend/internal/snapshot"
	"invitewatch-backend/internal/stats"
	"invitewatch-backend/internal/store"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database open failed")
	}
	st, err := store.New(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Store init failed")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis URL invalid")
		}
		rdb = redis.NewClient(opt)
	}

	settingsSvc := settings.New(st)
	statsSvc := stats.New(st, rdb)

	var session *discordgo.Session
	if cfg.DiscordToken != "" {
		session, err = discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			log.Fatal().Err(err).Msg("Discord session create failed")
		}
		source := &discord.Source{Session: session}
		snapSvc := snapshot.New(source, st)
		engine := attribution.New(source, snapSvc, statsSvc)
		bot := &discord.Bot{
			Session:   session,
			Engine:    engine,
			Snapshots: snapSvc,
			Settings:  settingsSvc,
			Stats:     statsSvc,
		}
		bot.Bind()
		if err := session.Open(); err != nil {
			log.Fatal().Err(err).Msg("Discord gateway open failed")
		}
		defer session.Close()
		log.Info().Msg("Discord gateway connected")
	} else {
		log.Warn().Msg("DISCORD_TOKEN unset, running HTTP surface only")
	}

	var pinger interface{ Ping() error }
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}
	fiberApp := app.CreateApp(app.Deps{
		Cfg:      cfg,
		Stats:    statsSvc,
		Settings: settingsSvc,
		Rdb:      rdb,
		DB:       pinger,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("HTTP listening")
		if err := fiberApp.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("HTTP listen failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("Shutting down")
	_ = fiberApp.Shutdown()
}
