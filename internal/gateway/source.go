package gateway

import (
	"context"

	"invitewatch-backend/internal/domain"
)

// Source is the external query service the tracker reads from. Both calls are
// fallible remote calls; the core adds no retry of its own.
type Source interface {
	// ListInvites fetches every current invite for the guild with per-invite
	// use counts, in the order the source returned them. Returns
	// ErrPermission when the bot cannot manage the guild, or a
	// *TransientError on network/rate-limit trouble.
	ListInvites(ctx context.Context, guildID string) (domain.GuildInvites, error)

	// VanityUses fetches the guild's aggregate vanity-URL use counter.
	// Returns ErrNoVanity when the guild has none.
	VanityUses(ctx context.Context, guildID string) (int, error)
}
