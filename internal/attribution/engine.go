package attribution

import (
	"context"
	"sync"

	"invitewatch-backend/internal/domain"
	"invitewatch-backend/internal/gateway"
	"invitewatch-backend/internal/snapshot"
	"invitewatch-backend/internal/stats"

	"github.com/rs/zerolog/log"
)

// Engine decides which invite brought a joining member in. There is no direct
// signal from the source, so it diffs use counts across a refresh and falls
// back to the guild's vanity counter. Attribution for a guild is serialized:
// two joins sharing a refresh window would otherwise both claim the same
// increment, or neither would see it.
type Engine struct {
	Source    gateway.Source
	Snapshots *snapshot.Service
	Stats     *stats.Service

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(src gateway.Source, snaps *snapshot.Service, ledger *stats.Service) *Engine {
	return &Engine{
		Source:    src,
		Snapshots: snaps,
		Stats:     ledger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// OnJoin attributes one join. It never returns an error: every failure along
// the way degrades to an inconclusive outcome, because the event source must
// not see a fault from this path. On a matched invite with a known inviter it
// credits the join, records the member→inviter relation and persists both
// before returning.
func (e *Engine) OnJoin(ctx context.Context, guildID, memberID string) domain.AttributionResult {
	unlock := e.lockGuild(guildID)
	defer unlock()

	var vanityBefore *int
	if uses, err := e.Source.VanityUses(ctx, guildID); err == nil {
		vanityBefore = &uses
	}

	before := e.Snapshots.Snapshot(guildID)
	after, err := e.Snapshots.Refresh(ctx, guildID)
	if err != nil {
		// Stale cache comes back; the diff below runs on partial info.
		log.Warn().Err(err).Str("guild_id", guildID).Msg("Invite refresh failed during join")
	}

	// First entry in fetch order whose use count strictly rose wins. Codes
	// already tracked before the refresh are diffed first; codes that only
	// appeared in this fetch count as zero prior uses but cannot outrank a
	// tracked invite's increment.
	winner := diffInvites(before, after)
	if winner != nil {
		rec := *winner
		res := domain.AttributionResult{
			Outcome:   domain.MatchedInvite,
			Code:      rec.Code,
			InviterID: rec.InviterID,
			ChannelID: rec.ChannelID,
			Uses:      rec.Uses,
			MaxUses:   rec.MaxUses,
			ExpiresAt: rec.ExpiresAt,
		}
		if rec.InviterID != "" {
			e.Stats.IncrementJoin(guildID, rec.InviterID, rec.Code)
			e.Stats.SetInviter(guildID, memberID, rec.InviterID)
		}
		return res
	}

	// No invite moved; maybe the member came through the vanity URL. Vanity
	// joins carry no inviter identity and never touch the ledger.
	if vanityBefore != nil {
		if uses, err := e.Source.VanityUses(ctx, guildID); err == nil && uses > *vanityBefore {
			return domain.AttributionResult{Outcome: domain.MatchedVanity}
		}
	}

	return domain.AttributionResult{Outcome: domain.Inconclusive}
}

// OnLeave credits the departure to the member's recorded inviter, if any.
// Members who joined before tracking began, or whose join was vanity or
// inconclusive, have no index entry and produce no mutation. The entry stays
// after the leave; a rejoin overwrites it.
func (e *Engine) OnLeave(guildID, memberID string) {
	inviterID, ok := e.Stats.Inviter(guildID, memberID)
	if !ok {
		return
	}
	e.Stats.IncrementLeave(guildID, inviterID)
}

// diffInvites names the invite the join most plausibly used, or nil. Two
// passes over the after list, both in fetch order: first codes that were
// already tracked, taking the first strict use-count increase; then codes new
// to this fetch with any recorded use. A brand-new invite can carry stale
// uses from before tracking started, so it never outranks a tracked invite's
// observed increment.
func diffInvites(before, after domain.GuildInvites) *domain.InviteRecord {
	for i := range after {
		if b := before.Find(after[i].Code); b != nil && after[i].Uses > b.Uses {
			return &after[i]
		}
	}
	for i := range after {
		if before.Find(after[i].Code) == nil && after[i].Uses > 0 {
			return &after[i]
		}
	}
	return nil
}

func (e *Engine) lockGuild(guildID string) func() {
	e.mu.Lock()
	l, ok := e.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[guildID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}
