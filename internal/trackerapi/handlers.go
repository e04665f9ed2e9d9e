package trackerapi

import (
	"invitewatch-backend/internal/pkg/response"
	"invitewatch-backend/internal/settings"
	"invitewatch-backend/internal/stats"

	"github.com/gofiber/fiber/v2"
)

const defaultLeaderboardLimit = 10

// Handlers exposes the tracker's read queries and the two admin writes over
// HTTP. Authorization for the writes happens in middleware; these handlers
// only apply.
type Handlers struct {
	Stats          *stats.Service
	Settings       *settings.Service
	LeaderboardMax int
}

type statsData struct {
	UserID         string `json:"user_id"`
	Joins          int    `json:"joins"`
	Leaves         int    `json:"leaves"`
	Bonus          int    `json:"bonus"`
	Total          int    `json:"total"`
	LastInviteCode string `json:"last_invite_code,omitempty"`
}

// GetStats returns one user's counters and derived total.
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	guildID := c.Params("guild_id")
	userID := c.Params("user_id")
	rec, ok := h.Stats.Get(guildID, userID)
	if !ok {
		return response.Error(c, "No statistics yet for this user", fiber.StatusNotFound)
	}
	return response.Success(c, "Stats retrieved", statsData{
		UserID:         userID,
		Joins:          rec.Joins,
		Leaves:         rec.Leaves,
		Bonus:          rec.Bonus,
		Total:          rec.Total(),
		LastInviteCode: rec.LastInviteCode,
	})
}

// Leaderboard returns the top inviters by total. The limit query parameter is
// clamped to [1, LeaderboardMax] before it reaches the ledger.
func (h *Handlers) Leaderboard(c *fiber.Ctx) error {
	guildID := c.Params("guild_id")
	limit := c.QueryInt("limit", defaultLeaderboardLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > h.LeaderboardMax {
		limit = h.LeaderboardMax
	}
	entries := h.Stats.TopN(c.Context(), guildID, limit)
	return response.Success(c, "Leaderboard retrieved", entries)
}

type adjustBonusBody struct {
	UserID string `json:"user_id"`
	Delta  int    `json:"delta"`
}

// AdjustBonus applies a signed manual adjustment to a user's credited total.
func (h *Handlers) AdjustBonus(c *fiber.Ctx) error {
	guildID := c.Params("guild_id")
	var body adjustBonusBody
	if err := c.BodyParser(&body); err != nil || body.UserID == "" {
		return response.Error(c, "user_id and delta are required", fiber.StatusBadRequest)
	}
	if body.Delta == 0 {
		return response.Error(c, "delta must be non-zero", fiber.StatusBadRequest)
	}
	rec := h.Stats.AdjustBonus(guildID, body.UserID, body.Delta)
	return response.Success(c, "Bonus adjusted", statsData{
		UserID:         body.UserID,
		Joins:          rec.Joins,
		Leaves:         rec.Leaves,
		Bonus:          rec.Bonus,
		Total:          rec.Total(),
		LastInviteCode: rec.LastInviteCode,
	})
}

type setLogChannelBody struct {
	ChannelID string `json:"channel_id"`
}

// SetLogChannel designates the guild's join-log channel.
func (h *Handlers) SetLogChannel(c *fiber.Ctx) error {
	guildID := c.Params("guild_id")
	var body setLogChannelBody
	if err := c.BodyParser(&body); err != nil || body.ChannelID == "" {
		return response.Error(c, "channel_id is required", fiber.StatusBadRequest)
	}
	if err := h.Settings.SetLogChannel(guildID, body.ChannelID); err != nil {
		return response.Error(c, "Could not save configuration", fiber.StatusInternalServerError)
	}
	return response.Success(c, "Log channel updated", fiber.Map{"channel_id": body.ChannelID})
}
