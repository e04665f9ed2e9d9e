package domain

// LiveStatusRef points at the single persistently-edited status message.
// Re-pointing it is idempotent.
type LiveStatusRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// GuildSettings is per-guild configuration. LogChannelID empty means the
// event boundary falls back to a name-based channel lookup.
type GuildSettings struct {
	LogChannelID string         `json:"log_channel_id,omitempty"`
	LiveStatus   *LiveStatusRef `json:"live_status,omitempty"`
}
