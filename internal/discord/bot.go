package discord

import (
	"context"
	"fmt"
	"strings"

	"invitewatch-backend/internal/attribution"
	"invitewatch-backend/internal/domain"
	"invitewatch-backend/internal/settings"
	"invitewatch-backend/internal/snapshot"
	"invitewatch-backend/internal/stats"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const logChannelNamePrefix = "invite-log"
const liveStatusEntries = 5

// Bot binds gateway events to the tracker core and posts join-log lines.
type Bot struct {
	Session   *discordgo.Session
	Engine    *attribution.Engine
	Snapshots *snapshot.Service
	Settings  *settings.Service
	Stats     *stats.Service
}

// Bind registers the event handlers and sets the intents they need.
func (b *Bot) Bind() {
	b.Session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildInvites
	b.Session.AddHandler(b.onGuildCreate)
	b.Session.AddHandler(b.onMemberAdd)
	b.Session.AddHandler(b.onMemberRemove)
	b.Session.AddHandler(b.onInviteCreate)
	b.Session.AddHandler(b.onInviteDelete)
}

// onGuildCreate primes the snapshot baseline as soon as a guild becomes
// available, so the first join after startup has something to diff against.
func (b *Bot) onGuildCreate(_ *discordgo.Session, ev *discordgo.GuildCreate) {
	if _, err := b.Snapshots.Refresh(context.Background(), ev.ID); err != nil {
		log.Warn().Err(err).Str("guild_id", ev.ID).Msg("Initial invite refresh failed")
	}
}

func (b *Bot) onMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	res := b.Engine.OnJoin(context.Background(), m.GuildID, m.User.ID)
	b.postJoinLog(m.GuildID, m.User, res)
	b.refreshLiveStatus(m.GuildID)
}

func (b *Bot) onMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	b.Engine.OnLeave(m.GuildID, m.User.ID)
	b.refreshLiveStatus(m.GuildID)
}

func (b *Bot) onInviteCreate(_ *discordgo.Session, ev *discordgo.InviteCreate) {
	rec := domain.InviteRecord{
		Code:    ev.Code,
		Uses:    ev.Uses,
		MaxUses: ev.MaxUses,
	}
	if !ev.CreatedAt.IsZero() {
		created := ev.CreatedAt
		rec.CreatedAt = &created
	}
	if ev.Inviter != nil {
		rec.InviterID = ev.Inviter.ID
	}
	rec.ChannelID = ev.ChannelID
	b.Snapshots.RecordCreate(ev.GuildID, rec)
}

func (b *Bot) onInviteDelete(_ *discordgo.Session, ev *discordgo.InviteDelete) {
	b.Snapshots.RecordDelete(ev.GuildID, ev.Code)
}

func (b *Bot) postJoinLog(guildID string, user *discordgo.User, res domain.AttributionResult) {
	channelID := b.logChannel(guildID)
	if channelID == "" {
		return
	}
	if _, err := b.Session.ChannelMessageSend(channelID, formatJoinLine(user, res)); err != nil {
		log.Warn().Err(err).Str("guild_id", guildID).Msg("Join log send failed")
	}
}

// logChannel prefers the configured channel and falls back to the first text
// channel whose name starts with "invite-log".
func (b *Bot) logChannel(guildID string) string {
	if id := b.Settings.LogChannel(guildID); id != "" {
		return id
	}
	channels, err := b.Session.GuildChannels(guildID)
	if err != nil {
		log.Debug().Err(err).Str("guild_id", guildID).Msg("Channel list failed")
		return ""
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && strings.HasPrefix(ch.Name, logChannelNamePrefix) {
			return ch.ID
		}
	}
	return ""
}

// refreshLiveStatus re-edits the pinned status message with the current top
// inviters, when a guild has one configured. Editing the same message again
// is the idempotent re-point the pointer promises.
func (b *Bot) refreshLiveStatus(guildID string) {
	ref, ok := b.Settings.LiveStatus(guildID)
	if !ok {
		return
	}
	top := b.Stats.TopN(context.Background(), guildID, liveStatusEntries)
	var sb strings.Builder
	sb.WriteString("**Top inviters**\n")
	if len(top) == 0 {
		sb.WriteString("No statistics yet")
	}
	for i, entry := range top {
		fmt.Fprintf(&sb, "%d. <@%s>: %d\n", i+1, entry.UserID, entry.Total)
	}
	if _, err := b.Session.ChannelMessageEdit(ref.ChannelID, ref.MessageID, sb.String()); err != nil {
		log.Debug().Err(err).Str("guild_id", guildID).Msg("Live status edit failed")
	}
}

func formatJoinLine(user *discordgo.User, res domain.AttributionResult) string {
	name := user.Username
	switch res.Outcome {
	case domain.MatchedInvite:
		if res.InviterID == "" {
			return fmt.Sprintf("**%s** joined using invite `%s` (%d uses); inviter unknown", name, res.Code, res.Uses)
		}
		return fmt.Sprintf("**%s** joined using invite `%s` (%d uses) from <@%s>", name, res.Code, res.Uses, res.InviterID)
	case domain.MatchedVanity:
		return fmt.Sprintf("**%s** joined using the vanity URL", name)
	default:
		return fmt.Sprintf("**%s** joined; could not determine which invite was used", name)
	}
}
