package snapshot

import (
	"context"
	"errors"
	"sync"

	"invitewatch-backend/internal/domain"
	"invitewatch-backend/internal/gateway"
	"invitewatch-backend/internal/store"

	"github.com/rs/zerolog/log"
)

// Service is the in-memory invite snapshot cache, hydrated from the store at
// startup and persisted after every change. Entries keep the fetch order of
// the external source because the attribution diff is first-match-wins.
type Service struct {
	Source gateway.Source
	Store  *store.Store

	mu     sync.Mutex
	guilds map[string]domain.GuildInvites
}

func New(src gateway.Source, st *store.Store) *Service {
	s := &Service{
		Source: src,
		Store:  st,
		guilds: make(map[string]domain.GuildInvites),
	}
	st.Load(store.DocInvites, &s.guilds)
	return s
}

// Snapshot returns a copy of the guild's cached invites (empty if unseen).
func (s *Service) Snapshot(guildID string) domain.GuildInvites {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneInvites(s.guilds[guildID])
}

// Refresh replaces the guild's entry with a fresh fetch and persists it.
// Missing manage-guild permission is a silent skip: the previous cache comes
// back unchanged with no error. A transient fetch failure also keeps the
// stale cache but surfaces the error so the caller can log it.
func (s *Service) Refresh(ctx context.Context, guildID string) (domain.GuildInvites, error) {
	fetched, err := s.Source.ListInvites(ctx, guildID)
	if err != nil {
		if errors.Is(err, gateway.ErrPermission) {
			log.Debug().Str("guild_id", guildID).Msg("No invite access, skipping refresh")
			return s.Snapshot(guildID), nil
		}
		return s.Snapshot(guildID), err
	}

	s.mu.Lock()
	s.guilds[guildID] = fetched
	s.persistLocked()
	s.mu.Unlock()
	return cloneInvites(fetched), nil
}

// RecordCreate upserts a single invite from a push notification.
func (s *Service) RecordCreate(guildID string, rec domain.InviteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invites := s.guilds[guildID]
	if existing := invites.Find(rec.Code); existing != nil {
		*existing = rec
	} else {
		s.guilds[guildID] = append(invites, rec)
	}
	s.persistLocked()
}

// RecordDelete removes a single invite from a push notification.
func (s *Service) RecordDelete(guildID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invites := s.guilds[guildID]
	for i := range invites {
		if invites[i].Code == code {
			s.guilds[guildID] = append(invites[:i], invites[i+1:]...)
			break
		}
	}
	s.persistLocked()
}

func (s *Service) persistLocked() {
	if err := s.Store.Save(store.DocInvites, s.guilds); err != nil {
		log.Warn().Err(err).Msg("Invite snapshot persist failed, keeping in-memory state")
	}
}

func cloneInvites(in domain.GuildInvites) domain.GuildInvites {
	if in == nil {
		return nil
	}
	out := make(domain.GuildInvites, len(in))
	copy(out, in)
	return out
}
