package handler

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(_ context.Context, c Conn, msg *protocol.Message) error {
	p, err := parse[protocol.PingPayload](msg)
	if err != nil {
		return err
	}

	c.Send(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: p.Timestamp,
		ServerTimestamp: h.now().UnixMilli(),
	}))
	return nil
}

// handleReconnect 凭重连令牌把新连接绑定回原来的玩家
func (h *Handler) handleReconnect(ctx context.Context, c Conn, msg *protocol.Message) error {
	p, err := parse[protocol.ReconnectPayload](msg)
	if err != nil {
		return err
	}

	if !h.sessions.CanReconnect(p.Token, p.PlayerID) {
		log.Info().Str("conn", c.ID()).Str("player", p.PlayerID).Msg("🔑 重连令牌无效或已过期")
		return apperrors.ErrReconnectFail
	}

	res, err := h.reg.Reconnect(ctx, c.ID(), p.PlayerID)
	if err != nil {
		return err
	}
	h.sessions.SetOnline(p.PlayerID)

	c.Send(codec.MustNewMessage(protocol.MsgReconnected, protocol.ReconnectedPayload{
		PlayerID: res.PlayerID,
		RoomCode: res.RoomCode,
		State:    res.State,
	}))
	return nil
}
