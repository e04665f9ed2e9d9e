package settings

import (
	"sync"

	"invitewatch-backend/internal/domain"
	"invitewatch-backend/internal/store"
)

// Service holds per-guild configuration: the designated log channel and the
// live status message pointer.
type Service struct {
	Store *store.Store

	mu     sync.Mutex
	guilds map[string]*domain.GuildSettings
}

func New(st *store.Store) *Service {
	s := &Service{
		Store:  st,
		guilds: make(map[string]*domain.GuildSettings),
	}
	st.Load(store.DocSettings, &s.guilds)
	return s
}

// SetLogChannel is a pure config write.
func (s *Service) SetLogChannel(guildID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(guildID).LogChannelID = channelID
	return s.Store.Save(store.DocSettings, s.guilds)
}

// LogChannel returns the configured log channel, empty if unset.
func (s *Service) LogChannel(guildID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.guilds[guildID]; ok {
		return g.LogChannelID
	}
	return ""
}

// SetLiveStatus re-points the live status message. Idempotent.
func (s *Service) SetLiveStatus(guildID string, ref domain.LiveStatusRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(guildID).LiveStatus = &ref
	return s.Store.Save(store.DocSettings, s.guilds)
}

// LiveStatus returns the current live status pointer, if one is set.
func (s *Service) LiveStatus(guildID string) (domain.LiveStatusRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.guilds[guildID]; ok && g.LiveStatus != nil {
		return *g.LiveStatus, true
	}
	return domain.LiveStatusRef{}, false
}

func (s *Service) getOrCreateLocked(guildID string) *domain.GuildSettings {
	g, ok := s.guilds[guildID]
	if !ok {
		g = &domain.GuildSettings{}
		s.guilds[guildID] = g
	}
	return g
}
