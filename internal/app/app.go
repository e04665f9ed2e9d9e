package app

import (
	"invitewatch-backend/internal/config"
	"invitewatch-backend/internal/health"
	"invitewatch-backend/internal/middleware"
	"invitewatch-backend/internal/settings"
	"invitewatch-backend/internal/stats"
	"invitewatch-backend/internal/trackerapi"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Deps carries the constructed services into route registration.
type Deps struct {
	Cfg      *config.Config
	Stats    *stats.Service
	Settings *settings.Service
	Rdb      *redis.Client
	DB       health.DBPinger
}

// CreateApp builds the Fiber app with all global middleware and route registration.
func CreateApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	// Health module (keep-alive ping + JSON dashboard)
	healthHandlers := &health.Handlers{Rdb: d.Rdb, DB: d.DB}
	app.Get("/", healthHandlers.KeepAlive)
	app.Get("/health/json", healthHandlers.JSON)

	// Tracker module: reads are open, writes sit behind the admin key
	trackerHandlers := &trackerapi.Handlers{
		Stats:          d.Stats,
		Settings:       d.Settings,
		LeaderboardMax: d.Cfg.LeaderboardMax,
	}
	guilds := app.Group("/api/v1/guilds/:guild_id")
	guilds.Get("/stats/:user_id", trackerHandlers.GetStats)
	guilds.Get("/leaderboard", trackerHandlers.Leaderboard)
	guilds.Post("/bonus", middleware.RequireAdminKey(d.Cfg.AdminKey), trackerHandlers.AdjustBonus)
	guilds.Post("/log-channel", middleware.RequireAdminKey(d.Cfg.AdminKey), trackerHandlers.SetLogChannel)

	return app
}
