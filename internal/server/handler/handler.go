// Package handler 把客户端消息分发到房间注册表。
//
// 每条消息在读协程中同步处理；房间状态的修改都在房间 actor 中完成，
// 处理器只负责解析载荷、选择动作以及把错误回复给发起的连接。
package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/game/registry"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
	"github.com/palemoky/wordle-party/internal/server/session"
)

// 单条消息等待房间 actor 的最长时间
const actionTimeout = 5 * time.Second

// Conn 处理器看到的客户端连接
type Conn interface {
	ID() string
	Send(msg *protocol.Message)
}

// Status 服务器状态
type Status interface {
	IsMaintenanceMode() bool
}

// Deps 处理器依赖
type Deps struct {
	Registry *registry.Registry
	Sessions *session.Manager
	Status   Status
	Now      func() time.Time
}

// Handler 消息处理器
type Handler struct {
	reg      *registry.Registry
	sessions *session.Manager
	status   Status
	now      func() time.Time
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名，返回的错误回复给发起的连接
type handlerFunc func(ctx context.Context, c Conn, msg *protocol.Message) error

// New 创建处理器
func New(deps Deps) *Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := &Handler{
		reg:      deps.Registry,
		sessions: deps.Sessions,
		status:   deps.Status,
		now:      deps.Now,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing:      h.handlePing,
		protocol.MsgReconnect: h.handleReconnect,

		// 房间操作
		protocol.MsgCreateRoom: h.handleCreateRoom,
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom:  h.handleLeaveRoom,
		protocol.MsgSetReady:   h.handleSetReady,
		protocol.MsgStartGame:  h.handleStartGame,
		protocol.MsgPlayAgain:  h.handlePlayAgain,

		// 游戏操作
		protocol.MsgSubmitGuess:        h.handleSubmitGuess,
		protocol.MsgSubmitSabotageWord: h.handleSubmitSabotageWord,
	}
}

// Handle 处理一条消息
func (h *Handler) Handle(ctx context.Context, c Conn, msg *protocol.Message) {
	fn, ok := h.handlers[msg.Type]
	if !ok {
		log.Warn().Str("conn", c.ID()).Str("type", string(msg.Type)).Int("payload", len(msg.Payload)).Msg("⚠️ 未知消息类型")
		c.Send(codec.NewErrorMessage(apperrors.ErrInvalidMessage))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	if err := fn(ctx, c, msg); err != nil {
		h.reply(c, msg.Type, err)
	}
}

// Disconnect 连接断开：玩家进入断线保留期，会话标记为离线
func (h *Handler) Disconnect(ctx context.Context, connID string) {
	playerID, _, err := h.reg.Resolve(connID)
	if err != nil {
		return
	}
	h.sessions.SetOffline(playerID)
	h.reg.RemoveConnection(ctx, connID)
}

// reply 按错误分类回复。未绑定的连接只记日志，不回复
func (h *Handler) reply(c Conn, t protocol.MessageType, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindUnresolved:
		log.Warn().Str("conn", c.ID()).Str("type", string(t)).Msg("⚠️ 连接未加入房间，丢弃消息")
		return
	case apperrors.KindCapacityExceeded:
		log.Warn().Str("conn", c.ID()).Err(err).Msg("🚫 房间号已耗尽")
	case apperrors.KindInternal:
		log.Error().Str("conn", c.ID()).Str("type", string(t)).Err(err).Msg("❌ 处理消息失败")
	default:
		log.Debug().Str("conn", c.ID()).Str("type", string(t)).Err(err).Msg("操作被拒绝")
	}
	c.Send(codec.NewErrorMessage(err))
}

func (h *Handler) maintenance() bool {
	return h.status != nil && h.status.IsMaintenanceMode()
}

// parse 解析载荷，失败时统一返回 ErrInvalidMessage
func parse[T any](msg *protocol.Message) (*T, error) {
	p, err := codec.ParsePayload[T](msg)
	if err != nil {
		log.Debug().Err(err).Str("type", string(msg.Type)).Msg("载荷解析失败")
		return nil, apperrors.ErrInvalidMessage
	}
	return p, nil
}
