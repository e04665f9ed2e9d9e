package domain

// InviterStats are the per-guild, per-user counters. Total is derived and
// never stored; LegacyTotal only exists so pre-split documents unmarshal
// losslessly for migration (see stats.Migrate).
type InviterStats struct {
	Joins          int    `json:"joins"`
	Leaves         int    `json:"leaves"`
	Bonus          int    `json:"bonus"`
	LastInviteCode string `json:"last_invite_code,omitempty"`

	LegacyTotal *int `json:"total,omitempty"`
}

// Total is joins − leaves + bonus, recomputed on every read.
func (s InviterStats) Total() int {
	return s.Joins - s.Leaves + s.Bonus
}

// LeaderboardEntry is one row of a TopN result.
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Total  int    `json:"total"`
}
