package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Info().Str("ip", clientIP).Msg("🔧 维护模式，拒绝新连接")
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// 连接数限制，信号量在 ReadPump 退出时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Warn().Int("max", cap(s.semaphore)).Str("ip", clientIP).Msg("🚫 达到最大连接数限制")
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}
	release := true
	defer func() {
		if release {
			<-s.semaphore
		}
	}()

	if !s.originChecker.Check(r) {
		log.Warn().Str("origin", r.Header.Get("Origin")).Str("ip", clientIP).Msg("🚫 来源验证失败")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.connLimiter.Allow(clientIP) {
		log.Warn().Str("ip", clientIP).Msg("🚫 连接过于频繁")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", clientIP).Msg("WebSocket 升级失败")
		return
	}
	release = false

	client := NewClient(s, conn, clientIP)
	s.registerClient(client)

	client.Send(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		ConnectionID: client.ID(),
	}))

	log.Info().Str("conn", client.ID()).Str("ip", clientIP).Msg("✅ 新连接")

	go client.ReadPump()
	go client.WritePump()
}

// registerClient 注册客户端
func (s *Server) registerClient(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[c.ID()] = c
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[c.ID()]; ok {
		delete(s.clients, c.ID())
		log.Info().Str("conn", c.ID()).Msg("❌ 连接已断开")
	}
}

// client 按连接 ID 查找客户端
func (s *Server) client(id string) (*Client, bool) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	c, ok := s.clients[id]
	return c, ok
}
