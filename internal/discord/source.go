package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"invitewatch-backend/internal/domain"
	"invitewatch-backend/internal/gateway"

	"github.com/bwmarrin/discordgo"
)

// Source adapts a Discord session to the gateway boundary. Discord offers no
// "member X used invite Y" signal, only the raw invite list and the vanity
// counter, which is exactly what the attribution engine diffs.
type Source struct {
	Session *discordgo.Session
}

func (s *Source) ListInvites(ctx context.Context, guildID string) (domain.GuildInvites, error) {
	invites, err := s.Session.GuildInvites(guildID, discordgo.WithContext(ctx))
	if err != nil {
		if isStatus(err, http.StatusForbidden) {
			return nil, gateway.ErrPermission
		}
		return nil, &gateway.TransientError{Op: "invite fetch", Err: err}
	}
	out := make(domain.GuildInvites, 0, len(invites))
	for _, inv := range invites {
		rec := domain.InviteRecord{
			Code:      inv.Code,
			Uses:      inv.Uses,
			MaxUses:   inv.MaxUses,
			ExpiresAt: inv.ExpiresAt,
		}
		if !inv.CreatedAt.IsZero() {
			created := inv.CreatedAt
			rec.CreatedAt = &created
		}
		if inv.Inviter != nil {
			rec.InviterID = inv.Inviter.ID
		}
		if inv.Channel != nil {
			rec.ChannelID = inv.Channel.ID
		}
		out = append(out, rec)
	}
	return out, nil
}

type vanityURL struct {
	Code *string `json:"code"`
	Uses int     `json:"uses"`
}

func (s *Source) VanityUses(ctx context.Context, guildID string) (int, error) {
	endpoint := discordgo.EndpointGuild(guildID) + "/vanity-url"
	body, err := s.Session.RequestWithBucketID(http.MethodGet, endpoint, nil, endpoint, discordgo.WithContext(ctx))
	if err != nil {
		if isStatus(err, http.StatusForbidden) || isStatus(err, http.StatusNotFound) {
			return 0, gateway.ErrNoVanity
		}
		return 0, &gateway.TransientError{Op: "vanity fetch", Err: err}
	}
	var v vanityURL
	if err := json.Unmarshal(body, &v); err != nil {
		return 0, &gateway.TransientError{Op: "vanity decode", Err: err}
	}
	if v.Code == nil {
		return 0, gateway.ErrNoVanity
	}
	return v.Uses, nil
}

func isStatus(err error, status int) bool {
	var rerr *discordgo.RESTError
	return errors.As(err, &rerr) && rerr.Response != nil && rerr.Response.StatusCode == status
}
