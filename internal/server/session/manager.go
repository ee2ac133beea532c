// Package session 管理重连令牌。
//
// 玩家加入房间时签发令牌，断线后凭 (token, playerID) 在时限内重连。
// 玩家离开房间或断线保留期结束后会话被删除。
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// 重连等待时间
	defaultReconnectTimeout = 30 * time.Second
	// 离线会话过期时间
	defaultExpireAfter = 10 * time.Minute
	// 清理间隔
	defaultCleanupInterval = time.Minute
)

// Session 玩家会话（用于断线重连）
type Session struct {
	PlayerID       string
	PlayerName     string
	RoomCode       string
	ReconnectToken string

	Online         bool
	DisconnectedAt time.Time
}

// Config 会话参数
type Config struct {
	ReconnectTimeout time.Duration
	ExpireAfter      time.Duration
	CleanupInterval  time.Duration
}

// Manager 会话管理器
type Manager struct {
	cfg Config
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session // playerID -> session
	tokens   map[string]string   // token -> playerID
}

// NewManager 创建会话管理器，now 为 nil 时使用系统时间
func NewManager(cfg Config, now func() time.Time) *Manager {
	if cfg.ReconnectTimeout <= 0 {
		cfg.ReconnectTimeout = defaultReconnectTimeout
	}
	if cfg.ExpireAfter <= 0 {
		cfg.ExpireAfter = defaultExpireAfter
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{
		cfg:      cfg,
		now:      now,
		sessions: make(map[string]*Session),
		tokens:   make(map[string]string),
	}
}

// Run 定期清理过期会话，直到 ctx 结束
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 {
				log.Debug().Int("removed", n).Msg("🧹 清理过期会话")
			}
		}
	}
}

// Create 为玩家签发新会话，已有会话时替换旧令牌
func (m *Manager) Create(playerID, playerName, roomCode string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.sessions[playerID]; ok {
		delete(m.tokens, old.ReconnectToken)
	}

	s := &Session{
		PlayerID:       playerID,
		PlayerName:     playerName,
		RoomCode:       roomCode,
		ReconnectToken: generateToken(),
		Online:         true,
	}
	m.sessions[playerID] = s
	m.tokens[s.ReconnectToken] = playerID
	return *s
}

// Get 获取会话副本
func (m *Manager) Get(playerID string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[playerID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// GetByToken 根据重连令牌获取会话副本
func (m *Manager) GetByToken(token string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byToken(token)
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// CanReconnect 令牌与玩家匹配且未超过重连时限
func (m *Manager) CanReconnect(token, playerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byToken(token)
	if !ok || subtle.ConstantTimeCompare([]byte(s.PlayerID), []byte(playerID)) != 1 {
		return false
	}
	if !s.Online && m.now().Sub(s.DisconnectedAt) > m.cfg.ReconnectTimeout {
		return false
	}
	return true
}

// SetOffline 标记玩家离线
func (m *Manager) SetOffline(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[playerID]; ok && s.Online {
		s.Online = false
		s.DisconnectedAt = m.now()
	}
}

// SetOnline 标记玩家上线
func (m *Manager) SetOnline(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[playerID]; ok {
		s.Online = true
		s.DisconnectedAt = time.Time{}
	}
}

// Delete 删除会话
func (m *Manager) Delete(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[playerID]; ok {
		delete(m.tokens, s.ReconnectToken)
		delete(m.sessions, playerID)
	}
}

// Len 会话数量
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup 删除离线超过过期时间的会话，返回删除数量
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for playerID, s := range m.sessions {
		if !s.Online && now.Sub(s.DisconnectedAt) > m.cfg.ExpireAfter {
			delete(m.tokens, s.ReconnectToken)
			delete(m.sessions, playerID)
			n++
		}
	}
	return n
}

// byToken 先按令牌找玩家，再确认该玩家当前的令牌仍是这一个。调用方持有读锁
func (m *Manager) byToken(token string) (*Session, bool) {
	playerID, ok := m.tokens[token]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[playerID]
	if !ok || s.ReconnectToken != token {
		return nil, false
	}
	return s, true
}

// generateToken 生成随机 token
func generateToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
