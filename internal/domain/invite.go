package domain

import "time"

// InviteRecord is the last-known usage metadata for one invitation link.
// Identity is Code, unique within a guild. Only the snapshot cache mutates these.
type InviteRecord struct {
	Code      string     `json:"code"`
	Uses      int        `json:"uses"`
	InviterID string     `json:"inviter_id,omitempty"`
	ChannelID string     `json:"channel_id,omitempty"`
	MaxUses   int        `json:"max_uses,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// GuildInvites is one guild's snapshot in fetch order. Order matters: the
// attribution diff declares the first strictly-increased entry the winner,
// so the slice preserves the order the external source returned.
type GuildInvites []InviteRecord

// Find returns the record for code, or nil.
func (g GuildInvites) Find(code string) *InviteRecord {
	for i := range g {
		if g[i].Code == code {
			return &g[i]
		}
	}
	return nil
}
