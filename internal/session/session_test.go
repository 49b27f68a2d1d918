package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/gate"
)

func TestSession_GatesArePerItem(t *testing.T) {
	m := NewManager(0, nil)
	s := m.Create("u1", "a@b.c", "482913")

	g := s.Gate("p1")
	assert.Same(t, g, s.Gate("p1"))

	g.RequestReveal()
	require.NoError(t, g.Submit(context.Background(), "482913", s.Code()))

	assert.True(t, s.Revealed("p1"))
	assert.False(t, s.Revealed("p2"))
	assert.Equal(t, 1, s.GateCount())

	s.DropGate("p1")
	assert.False(t, s.Revealed("p1"))
	_, ok := s.LookupGate("p1")
	assert.False(t, ok)
}

func TestSession_GatesArePerSession(t *testing.T) {
	m := NewManager(0, nil)
	a := m.Create("u1", "a@b.c", "482913")
	b := m.Create("u1", "a@b.c", "482913")

	g := a.Gate("p1")
	g.RequestReveal()
	require.NoError(t, g.Submit(context.Background(), "482913", a.Code()))

	assert.True(t, a.Revealed("p1"))
	assert.False(t, b.Revealed("p1"))
}

func TestSession_Deletion(t *testing.T) {
	m := NewManager(0, nil)
	s := m.Create("u1", "a@b.c", "482913")

	g, code := s.Deletion()
	assert.Nil(t, g)
	assert.Empty(t, code)

	code, err := s.StartDeletion()
	require.NoError(t, err)
	assert.True(t, gate.ValidCode(code))

	g, got := s.Deletion()
	require.NotNil(t, g)
	assert.Equal(t, code, got)
	assert.Equal(t, gate.AwaitingCode, g.State())

	// the deletion code is separate from the login code
	assert.Equal(t, "482913", s.Code())

	s.ClearDeletion()
	g, _ = s.Deletion()
	assert.Nil(t, g)
}

func TestManager_GetDelete(t *testing.T) {
	m := NewManager(0, nil)
	s := m.Create("u1", "a@b.c", "1")

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	m.Delete(s.ID)
	_, ok = m.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestManager_DeleteUser(t *testing.T) {
	m := NewManager(0, nil)
	m.Create("u1", "a@b.c", "1")
	m.Create("u1", "a@b.c", "1")
	other := m.Create("u2", "x@y.z", "2")

	assert.Equal(t, 2, m.DeleteUser("u1"))
	assert.Equal(t, 1, m.Len())
	_, ok := m.Get(other.ID)
	assert.True(t, ok)
}

func TestManager_IdleExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager(time.Hour, nil)
	m.now = func() time.Time { return now }

	a := m.Create("u1", "a@b.c", "1")
	b := m.Create("u2", "x@y.z", "2")

	now = now.Add(45 * time.Minute)
	_, ok := m.Get(b.ID)
	require.True(t, ok)

	now = now.Add(30 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	_, ok = m.Get(a.ID)
	assert.False(t, ok)
	_, ok = m.Get(b.ID)
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok = m.Get(b.ID)
	assert.False(t, ok)
}

func TestManager_DeleteForgetsLimiterCounters(t *testing.T) {
	lim := gate.NewMemoryLimiter(1, time.Hour)
	m := NewManager(0, lim)
	s := m.Create("u1", "a@b.c", "482913")

	g := s.Gate("p1")
	g.RequestReveal()
	_ = g.Submit(context.Background(), "000000", s.Code())
	ok, _ := lim.Allow(context.Background(), s.ID+":p1")
	require.False(t, ok)

	m.Delete(s.ID)
	ok, _ = lim.Allow(context.Background(), s.ID+":p1")
	assert.True(t, ok)
}

func TestManager_StartSweeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager(time.Minute, nil)
	m.now = func() time.Time { return now }
	m.Create("u1", "a@b.c", "1")
	m.now = func() time.Time { return now.Add(time.Hour) }

	m.StartSweeper(ctx, 10*time.Millisecond, zap.NewNop())

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 10*time.Millisecond)
}
