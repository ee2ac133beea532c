package server

import (
	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

// SendToPlayers 把房间事件投递到玩家当前的连接，离线玩家直接跳过
func (s *Server) SendToPlayers(roomCode string, playerIDs []string, msgType protocol.MessageType, payload any) {
	msg, err := codec.NewMessage(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("room", roomCode).Str("type", string(msgType)).Msg("事件编码失败")
		return
	}
	for _, id := range playerIDs {
		connID, ok := s.reg.ConnOf(id)
		if !ok {
			continue
		}
		if c, ok := s.client(connID); ok {
			c.Send(msg)
		}
	}
}

// OnlineCount 在线连接数
func (s *Server) OnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// BroadcastToLobby 广播消息给大厅连接（未加入房间的连接）
func (s *Server) BroadcastToLobby(msg *protocol.Message) {
	s.clientsMu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range clients {
		if _, _, err := s.reg.Resolve(c.ID()); err != nil {
			c.Send(msg)
		}
	}
}
