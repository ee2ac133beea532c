package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager() (*Manager, *manualClock) {
	clock := &manualClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	m := NewManager(Config{ReconnectTimeout: 30 * time.Second, ExpireAfter: 5 * time.Minute}, clock.Now)
	return m, clock
}

func TestManager_CRUD(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager()

	s := m.Create("p1", "alice", "ABCD")
	assert.Equal(t, "p1", s.PlayerID)
	assert.Equal(t, "alice", s.PlayerName)
	assert.Equal(t, "ABCD", s.RoomCode)
	assert.Len(t, s.ReconnectToken, 64)
	assert.True(t, s.Online)

	got, ok := m.Get("p1")
	require.True(t, ok)
	assert.Equal(t, s, got)
	assert.Equal(t, 1, m.Len())

	m.Delete("p1")
	_, ok = m.Get("p1")
	assert.False(t, ok)
	assert.False(t, m.CanReconnect(s.ReconnectToken, "p1"))
	assert.Zero(t, m.Len())

	// 重复删除不报错
	m.Delete("p1")
}

func TestManager_CreateReplacesToken(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager()

	first := m.Create("p1", "alice", "ABCD")
	second := m.Create("p1", "alice", "WXYZ")

	assert.NotEqual(t, first.ReconnectToken, second.ReconnectToken)
	assert.False(t, m.CanReconnect(first.ReconnectToken, "p1"))
	assert.True(t, m.CanReconnect(second.ReconnectToken, "p1"))
	assert.Equal(t, 1, m.Len())

	_, ok := m.GetByToken(first.ReconnectToken)
	assert.False(t, ok, "旧令牌已失效")
	s, ok := m.GetByToken(second.ReconnectToken)
	require.True(t, ok)
	assert.Equal(t, "WXYZ", s.RoomCode)
}

func TestManager_TokenLookup(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager()

	alice := m.Create("p1", "alice", "ABCD")
	bob := m.Create("p2", "bob", "ABCD")

	s, ok := m.GetByToken(alice.ReconnectToken)
	require.True(t, ok)
	assert.Equal(t, "p1", s.PlayerID)

	assert.False(t, m.CanReconnect(alice.ReconnectToken, "p2"), "令牌不能冒用他人身份")
	assert.False(t, m.CanReconnect(bob.ReconnectToken, "p1"))
	assert.False(t, m.CanReconnect("", "p1"))

	m.Delete("p1")
	_, ok = m.GetByToken(alice.ReconnectToken)
	assert.False(t, ok)
	assert.True(t, m.CanReconnect(bob.ReconnectToken, "p2"))

	m.SetOffline("p2")
	assert.Equal(t, 0, m.Cleanup())
	_, ok = m.GetByToken(bob.ReconnectToken)
	assert.True(t, ok, "保留期内令牌仍可查到")
}

func TestManager_OnlineStatus(t *testing.T) {
	t.Parallel()
	m, clock := newTestManager()
	m.Create("p1", "alice", "ABCD")

	m.SetOffline("p1")
	s, _ := m.Get("p1")
	assert.False(t, s.Online)
	assert.Equal(t, clock.Now(), s.DisconnectedAt)

	// 再次离线不刷新断线时间
	clock.Advance(5 * time.Second)
	m.SetOffline("p1")
	s, _ = m.Get("p1")
	assert.Equal(t, clock.Now().Add(-5*time.Second), s.DisconnectedAt)

	m.SetOnline("p1")
	s, _ = m.Get("p1")
	assert.True(t, s.Online)
	assert.True(t, s.DisconnectedAt.IsZero())

	// 未知玩家是空操作
	m.SetOffline("ghost")
	m.SetOnline("ghost")
}

func TestManager_CanReconnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setup     func(m *Manager, c *manualClock) (token, playerID string)
		wantAllow bool
	}{
		{
			name: "online",
			setup: func(m *Manager, _ *manualClock) (string, string) {
				return m.Create("p1", "alice", "ABCD").ReconnectToken, "p1"
			},
			wantAllow: true,
		},
		{
			name: "offline within timeout",
			setup: func(m *Manager, c *manualClock) (string, string) {
				s := m.Create("p1", "alice", "ABCD")
				m.SetOffline("p1")
				c.Advance(29 * time.Second)
				return s.ReconnectToken, "p1"
			},
			wantAllow: true,
		},
		{
			name: "offline past timeout",
			setup: func(m *Manager, c *manualClock) (string, string) {
				s := m.Create("p1", "alice", "ABCD")
				m.SetOffline("p1")
				c.Advance(31 * time.Second)
				return s.ReconnectToken, "p1"
			},
			wantAllow: false,
		},
		{
			name: "wrong token",
			setup: func(m *Manager, _ *manualClock) (string, string) {
				m.Create("p1", "alice", "ABCD")
				return "invalid", "p1"
			},
			wantAllow: false,
		},
		{
			name: "token of another player",
			setup: func(m *Manager, _ *manualClock) (string, string) {
				a := m.Create("p1", "alice", "ABCD")
				m.Create("p2", "bob", "ABCD")
				return a.ReconnectToken, "p2"
			},
			wantAllow: false,
		},
		{
			name: "unknown player",
			setup: func(*Manager, *manualClock) (string, string) {
				return "token", "ghost"
			},
			wantAllow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, c := newTestManager()
			token, playerID := tt.setup(m, c)
			assert.Equal(t, tt.wantAllow, m.CanReconnect(token, playerID))
		})
	}
}

func TestManager_Cleanup(t *testing.T) {
	t.Parallel()
	m, clock := newTestManager()

	m.Create("online", "alice", "ABCD")
	m.Create("recent", "bob", "ABCD")
	m.Create("stale", "carol", "ABCD")

	m.SetOffline("stale")
	clock.Advance(4 * time.Minute)
	m.SetOffline("recent")
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, m.Cleanup())
	_, ok := m.Get("stale")
	assert.False(t, ok)
	_, ok = m.Get("recent")
	assert.True(t, ok)
	_, ok = m.Get("online")
	assert.True(t, ok)
}

func TestManager_RunStopsWithContext(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{CleanupInterval: time.Millisecond, ExpireAfter: time.Nanosecond}, nil)
	m.Create("p1", "alice", "ABCD")
	m.SetOffline("p1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestManager_Concurrency(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager()

	var wg sync.WaitGroup
	for i := range 50 {
		id := string(rune('a' + i%26))
		wg.Go(func() {
			s := m.Create(id, id, "ABCD")
			m.SetOffline(id)
			_ = m.CanReconnect(s.ReconnectToken, id)
			m.SetOnline(id)
		})
	}
	wg.Wait()
	assert.Equal(t, 26, m.Len())
}
