package stats

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"invitewatch-backend/internal/domain"
	"invitewatch-backend/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	leaderboardKeyPrefix = "invitewatch:leaderboard:"
	leaderboardTTL       = 30 * time.Second
)

// Service is the statistics ledger plus the member→inviter reverse index.
// It holds the authoritative in-memory copies and writes each mutation back
// to the store synchronously; persistence failures are logged and retried
// implicitly on the next mutation.
type Service struct {
	Store *store.Store
	Rdb   *redis.Client // optional leaderboard cache; nil disables caching

	mu    sync.Mutex
	stats map[string]map[string]*domain.InviterStats
	index map[string]map[string]string
}

func New(st *store.Store, rdb *redis.Client) *Service {
	s := &Service{
		Store: st,
		Rdb:   rdb,
		stats: make(map[string]map[string]*domain.InviterStats),
		index: make(map[string]map[string]string),
	}
	st.Load(store.DocStats, &s.stats)
	st.Load(store.DocAttribution, &s.index)
	if migrateStats(s.stats) {
		log.Info().Msg("Migrated legacy stats records")
		s.persistStatsLocked()
	}
	return s
}

// IncrementJoin credits one join to the inviter and remembers the invite code
// used. First touch creates a zeroed record.
func (s *Service) IncrementJoin(guildID, userID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.getOrCreateLocked(guildID, userID)
	rec.Joins++
	rec.LastInviteCode = code
	s.persistStatsLocked()
	s.invalidateLeaderboard(guildID)
}

// IncrementLeave debits one leave from the inviter.
func (s *Service) IncrementLeave(guildID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.getOrCreateLocked(guildID, userID)
	rec.Leaves++
	s.persistStatsLocked()
	s.invalidateLeaderboard(guildID)
}

// AdjustBonus applies a signed manual adjustment. Authorization happens at
// the caller; the ledger only applies.
func (s *Service) AdjustBonus(guildID, userID string, delta int) domain.InviterStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.getOrCreateLocked(guildID, userID)
	rec.Bonus += delta
	s.persistStatsLocked()
	s.invalidateLeaderboard(guildID)
	return *rec
}

// Get returns the user's stats and whether a record exists.
func (s *Service) Get(guildID, userID string) (domain.InviterStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.stats[guildID][userID]; ok {
		return *rec, true
	}
	return domain.InviterStats{}, false
}

// TopN returns up to n entries ordered by total descending. Ties are broken
// by ascending user ID so the order is stable across calls. n larger than the
// entry count returns everything.
func (s *Service) TopN(ctx context.Context, guildID string, n int) []domain.LeaderboardEntry {
	if n <= 0 {
		return nil
	}
	if cached, ok := s.cachedLeaderboard(ctx, guildID); ok {
		if n < len(cached) {
			return cached[:n]
		}
		return cached
	}

	s.mu.Lock()
	entries := make([]domain.LeaderboardEntry, 0, len(s.stats[guildID]))
	for userID, rec := range s.stats[guildID] {
		entries = append(entries, domain.LeaderboardEntry{UserID: userID, Total: rec.Total()})
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].UserID < entries[j].UserID
	})
	s.storeLeaderboard(ctx, guildID, entries)
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// SetInviter records who brought the member in. A rejoin overwrites the prior
// entry; departures never remove it, so the last known inviter survives.
func (s *Service) SetInviter(guildID, memberID, inviterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild, ok := s.index[guildID]
	if !ok {
		guild = make(map[string]string)
		s.index[guildID] = guild
	}
	guild[memberID] = inviterID
	if err := s.Store.Save(store.DocAttribution, s.index); err != nil {
		log.Warn().Err(err).Msg("Attribution index persist failed, keeping in-memory state")
	}
}

// Inviter looks up who invited the member, if the join was ever attributed.
func (s *Service) Inviter(guildID, memberID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inviterID, ok := s.index[guildID][memberID]
	return inviterID, ok
}

func (s *Service) getOrCreateLocked(guildID, userID string) *domain.InviterStats {
	guild, ok := s.stats[guildID]
	if !ok {
		guild = make(map[string]*domain.InviterStats)
		s.stats[guildID] = guild
	}
	rec, ok := guild[userID]
	if !ok {
		rec = &domain.InviterStats{}
		guild[userID] = rec
	}
	return rec
}

func (s *Service) persistStatsLocked() {
	if err := s.Store.Save(store.DocStats, s.stats); err != nil {
		log.Warn().Err(err).Msg("Stats persist failed, keeping in-memory state")
	}
}

func (s *Service) cachedLeaderboard(ctx context.Context, guildID string) ([]domain.LeaderboardEntry, bool) {
	if s.Rdb == nil {
		return nil, false
	}
	b, err := s.Rdb.Get(ctx, leaderboardKeyPrefix+guildID).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (s *Service) storeLeaderboard(ctx context.Context, guildID string, entries []domain.LeaderboardEntry) {
	if s.Rdb == nil {
		return
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.Rdb.Set(ctx, leaderboardKeyPrefix+guildID, b, leaderboardTTL).Err(); err != nil {
		log.Debug().Err(err).Msg("Leaderboard cache write failed")
	}
}

func (s *Service) invalidateLeaderboard(guildID string) {
	if s.Rdb == nil {
		return
	}
	if err := s.Rdb.Del(context.Background(), leaderboardKeyPrefix+guildID).Err(); err != nil {
		log.Debug().Err(err).Msg("Leaderboard cache invalidation failed")
	}
}
