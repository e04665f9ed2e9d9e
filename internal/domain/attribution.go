package domain

import "time"

// AttributionOutcome classifies what the join diff concluded.
type AttributionOutcome string

const (
	// MatchedInvite: exactly one tracked invite's use count rose; the join is
	// credited to that invite (and its inviter when known).
	MatchedInvite AttributionOutcome = "matched_invite"
	// MatchedVanity: no tracked invite rose but the guild's vanity counter
	// did. Vanity joins are never credited to a specific user.
	MatchedVanity AttributionOutcome = "matched_vanity"
	// Inconclusive: neither signal moved, or fetching them failed. Not an
	// error; the ledger and reverse index stay untouched.
	Inconclusive AttributionOutcome = "inconclusive"
)

// AttributionResult is what OnJoin hands back to the event boundary for
// join-log formatting. Invite fields are only set for MatchedInvite.
type AttributionResult struct {
	Outcome   AttributionOutcome
	Code      string
	InviterID string
	ChannelID string
	Uses      int
	MaxUses   int
	ExpiresAt *time.Time
}
