package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certtrack/internal/types"
)

func TestSessionLifecycle(t *testing.T) {
	m := NewSessionManager(time.Hour)

	u := &types.User{ID: 7, Name: "Asha", Role: types.RoleEngineer}
	s := m.Create(u)
	require.NotEmpty(t, s.Token)
	assert.Equal(t, int64(7), s.UserID)
	assert.Equal(t, types.RoleEngineer, s.Role)

	got := m.Get(s.Token)
	require.NotNil(t, got)
	assert.Equal(t, s.Token, got.Token)

	m.Destroy(s.Token)
	assert.Nil(t, m.Get(s.Token))
}

func TestSessionExpiry(t *testing.T) {
	m := NewSessionManager(time.Hour)
	s := m.Create(&types.User{ID: 1, Name: "x", Role: types.RoleAdmin})

	s.ExpiresAt = time.Now().Add(-time.Minute)
	assert.Nil(t, m.Get(s.Token), "expired session should be dropped on access")
	assert.Nil(t, m.Get(s.Token), "lazy deletion should be permanent")
}

func TestSessionSweep(t *testing.T) {
	m := NewSessionManager(time.Hour)
	live := m.Create(&types.User{ID: 1, Name: "live", Role: types.RoleAdmin})
	dead := m.Create(&types.User{ID: 2, Name: "dead", Role: types.RoleAdmin})
	dead.ExpiresAt = time.Now().Add(-time.Second)

	assert.Equal(t, 1, m.Sweep())
	assert.NotNil(t, m.Get(live.Token))
	assert.Nil(t, m.Get(dead.Token))
}

func TestFlashesDrainOnce(t *testing.T) {
	m := NewSessionManager(time.Hour)
	s := m.Create(&types.User{ID: 1, Name: "x", Role: types.RoleAdmin})

	m.AddFlash(s, "success", "saved")
	m.AddFlash(s, "danger", "boom")

	got := m.PopFlashes(s)
	require.Len(t, got, 2)
	assert.Equal(t, Flash{Level: "success", Message: "saved"}, got[0])
	assert.Equal(t, Flash{Level: "danger", Message: "boom"}, got[1])

	assert.Empty(t, m.PopFlashes(s), "flashes are one-shot")

	// nil session is a no-op on both sides
	m.AddFlash(nil, "info", "ignored")
	assert.Nil(t, m.PopFlashes(nil))
}
