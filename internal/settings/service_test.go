package settings

import (
	"testing"

	"invitewatch-backend/internal/database"
	"invitewatch-backend/internal/domain"
	"invitewatch-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSettings(t *testing.T) (*Service, *store.Store) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	st, err := store.New(db)
	require.NoError(t, err)
	return New(st), st
}

func TestLogChannel_DefaultEmpty(t *testing.T) {
	svc, _ := setupSettings(t)
	assert.Empty(t, svc.LogChannel("g"))
}

func TestSetLogChannel_PersistsAcrossReload(t *testing.T) {
	svc, st := setupSettings(t)

	require.NoError(t, svc.SetLogChannel("g", "chan-1"))
	assert.Equal(t, "chan-1", svc.LogChannel("g"))

	reloaded := New(st)
	assert.Equal(t, "chan-1", reloaded.LogChannel("g"))
}

func TestSetLiveStatus_IdempotentRepoint(t *testing.T) {
	svc, _ := setupSettings(t)

	ref := domain.LiveStatusRef{ChannelID: "chan-1", MessageID: "msg-1"}
	require.NoError(t, svc.SetLiveStatus("g", ref))
	require.NoError(t, svc.SetLiveStatus("g", ref))

	got, ok := svc.LiveStatus("g")
	require.True(t, ok)
	assert.Equal(t, ref, got)

	// Re-pointing replaces the previous reference.
	moved := domain.LiveStatusRef{ChannelID: "chan-2", MessageID: "msg-2"}
	require.NoError(t, svc.SetLiveStatus("g", moved))
	got, _ = svc.LiveStatus("g")
	assert.Equal(t, moved, got)
}

func TestLiveStatus_Unset(t *testing.T) {
	svc, _ := setupSettings(t)
	_, ok := svc.LiveStatus("g")
	assert.False(t, ok)
}
