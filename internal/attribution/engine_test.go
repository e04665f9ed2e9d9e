package attribution

import (
	"context"
	"errors"
	"testing"

	"invitewatch-backend/internal/database"
	"invitewatch-backend/internal/domain"
	"invitewatch-backend/internal/gateway"
	"invitewatch-backend/internal/snapshot"
	"invitewatch-backend/internal/stats"
	"invitewatch-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	invites   domain.GuildInvites
	listErr   error
	vanity    []int // consumed one per VanityUses call; last value repeats
	vanityErr error
	vanityIdx int
}

func (f *fakeSource) ListInvites(_ context.Context, _ string) (domain.GuildInvites, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(domain.GuildInvites, len(f.invites))
	copy(out, f.invites)
	return out, nil
}

func (f *fakeSource) VanityUses(_ context.Context, _ string) (int, error) {
	if f.vanityErr != nil {
		return 0, f.vanityErr
	}
	i := f.vanityIdx
	if i >= len(f.vanity) {
		i = len(f.vanity) - 1
	}
	f.vanityIdx++
	return f.vanity[i], nil
}

func setupEngine(t *testing.T, src *fakeSource) (*Engine, *stats.Service) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	st, err := store.New(db)
	require.NoError(t, err)
	snaps := snapshot.New(src, st)
	ledger := stats.New(st, nil)
	return New(src, snaps, ledger), ledger
}

// prime loads the "before" snapshot into the cache, then swaps the source to
// the "after" state.
func prime(t *testing.T, e *Engine, src *fakeSource, before, after domain.GuildInvites) {
	src.invites = before
	_, err := e.Snapshots.Refresh(context.Background(), "g")
	require.NoError(t, err)
	src.invites = after
}

func TestOnJoin_AttributesFirstIncrement(t *testing.T) {
	src := &fakeSource{vanityErr: gateway.ErrNoVanity}
	e, ledger := setupEngine(t, src)

	prime(t, e, src,
		domain.GuildInvites{{Code: "codeA", Uses: 2, InviterID: "alice"}},
		domain.GuildInvites{
			{Code: "codeB", Uses: 5, InviterID: "bob"}, // new this fetch, listed first
			{Code: "codeA", Uses: 3, InviterID: "alice"},
		})

	res := e.OnJoin(context.Background(), "g", "member-1")
	assert.Equal(t, domain.MatchedInvite, res.Outcome)
	assert.Equal(t, "codeA", res.Code)
	assert.Equal(t, "alice", res.InviterID)
	assert.Equal(t, 3, res.Uses)

	rec, ok := ledger.Get("g", "alice")
	require.True(t, ok)
	assert.Equal(t, 1, rec.Joins)
	assert.Equal(t, "codeA", rec.LastInviteCode)

	inviter, ok := ledger.Inviter("g", "member-1")
	require.True(t, ok)
	assert.Equal(t, "alice", inviter)

	_, ok = ledger.Get("g", "bob")
	assert.False(t, ok)
}

func TestOnJoin_NewInviteMatchesWhenNothingElseMoved(t *testing.T) {
	src := &fakeSource{vanityErr: gateway.ErrNoVanity}
	e, ledger := setupEngine(t, src)

	prime(t, e, src,
		domain.GuildInvites{{Code: "codeA", Uses: 2, InviterID: "alice"}},
		domain.GuildInvites{
			{Code: "codeA", Uses: 2, InviterID: "alice"},
			{Code: "codeB", Uses: 1, InviterID: "bob"},
		})

	res := e.OnJoin(context.Background(), "g", "member-1")
	assert.Equal(t, domain.MatchedInvite, res.Outcome)
	assert.Equal(t, "codeB", res.Code)

	rec, ok := ledger.Get("g", "bob")
	require.True(t, ok)
	assert.Equal(t, 1, rec.Joins)
}

func TestOnJoin_FirstMatchWinsAmongTrackedTies(t *testing.T) {
	src := &fakeSource{vanityErr: gateway.ErrNoVanity}
	e, _ := setupEngine(t, src)

	prime(t, e, src,
		domain.GuildInvites{
			{Code: "codeA", Uses: 1, InviterID: "alice"},
			{Code: "codeB", Uses: 1, InviterID: "bob"},
		},
		domain.GuildInvites{
			{Code: "codeB", Uses: 2, InviterID: "bob"},
			{Code: "codeA", Uses: 2, InviterID: "alice"},
		})

	// Both rose; fetch order of the refreshed list breaks the tie.
	res := e.OnJoin(context.Background(), "g", "member-1")
	assert.Equal(t, "codeB", res.Code)
}

func TestOnJoin_VanityFallback(t *testing.T) {
	src := &fakeSource{
		invites: domain.GuildInvites{{Code: "codeA", Uses: 2, InviterID: "alice"}},
		vanity:  []int{7, 8},
	}
	e, ledger := setupEngine(t, src)

	prime(t, e, src, src.invites, src.invites)
	src.vanityIdx = 0

	res := e.OnJoin(context.Background(), "g", "member-1")
	assert.Equal(t, domain.MatchedVanity, res.Outcome)

	// Vanity joins credit nobody and leave the index alone.
	_, ok := ledger.Get("g", "alice")
	assert.False(t, ok)
	_, ok = ledger.Inviter("g", "member-1")
	assert.False(t, ok)
}

func TestOnJoin_Inconclusive(t *testing.T) {
	src := &fakeSource{
		invites: domain.GuildInvites{{Code: "codeA", Uses: 2, InviterID: "alice"}},
		vanity:  []int{7},
	}
	e, ledger := setupEngine(t, src)

	prime(t, e, src, src.invites, src.invites)
	src.vanityIdx = 0

	res := e.OnJoin(context.Background(), "g", "member-1")
	assert.Equal(t, domain.Inconclusive, res.Outcome)

	_, ok := ledger.Get("g", "alice")
	assert.False(t, ok)
	_, ok = ledger.Inviter("g", "member-1")
	assert.False(t, ok)
}

func TestOnJoin_InviterlessInviteTouchesNothing(t *testing.T) {
	src := &fakeSource{vanityErr: gateway.ErrNoVanity}
	e, ledger := setupEngine(t, src)

	prime(t, e, src,
		domain.GuildInvites{{Code: "codeA", Uses: 2}},
		domain.GuildInvites{{Code: "codeA", Uses: 3}})

	res := e.OnJoin(context.Background(), "g", "member-1")
	assert.Equal(t, domain.MatchedInvite, res.Outcome)
	assert.Equal(t, "codeA", res.Code)
	assert.Empty(t, res.InviterID)

	_, ok := ledger.Inviter("g", "member-1")
	assert.False(t, ok)
}

func TestOnJoin_RefreshFailureDegradesToInconclusive(t *testing.T) {
	src := &fakeSource{vanityErr: gateway.ErrNoVanity}
	e, ledger := setupEngine(t, src)

	prime(t, e, src,
		domain.GuildInvites{{Code: "codeA", Uses: 2, InviterID: "alice"}},
		nil)
	src.listErr = &gateway.TransientError{Op: "invite fetch", Err: errors.New("timeout")}

	res := e.OnJoin(context.Background(), "g", "member-1")
	assert.Equal(t, domain.Inconclusive, res.Outcome)
	_, ok := ledger.Get("g", "alice")
	assert.False(t, ok)
}

func TestOnLeave_CreditsRecordedInviterOnly(t *testing.T) {
	src := &fakeSource{vanityErr: gateway.ErrNoVanity}
	e, ledger := setupEngine(t, src)

	ledger.SetInviter("g", "member-1", "alice")
	ledger.AdjustBonus("g", "bob", 1)

	e.OnLeave("g", "member-1")

	rec, ok := ledger.Get("g", "alice")
	require.True(t, ok)
	assert.Equal(t, 1, rec.Leaves)
	assert.Equal(t, -1, rec.Total())

	bob, _ := ledger.Get("g", "bob")
	assert.Equal(t, 0, bob.Leaves)

	// The index entry survives the departure.
	inviter, ok := ledger.Inviter("g", "member-1")
	require.True(t, ok)
	assert.Equal(t, "alice", inviter)
}

func TestOnLeave_UnattributedMemberIsNoop(t *testing.T) {
	src := &fakeSource{vanityErr: gateway.ErrNoVanity}
	e, ledger := setupEngine(t, src)

	ledger.AdjustBonus("g", "alice", 2)
	before, _ := ledger.Get("g", "alice")

	e.OnLeave("g", "stranger")

	after, _ := ledger.Get("g", "alice")
	assert.Equal(t, before, after)
	_, ok := ledger.Get("g", "stranger")
	assert.False(t, ok)
}
