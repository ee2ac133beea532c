package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/game/registry"
	"github.com/palemoky/wordle-party/internal/game/room"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

// handleCreateRoom 创建房间，创建者随即加入
func (h *Handler) handleCreateRoom(ctx context.Context, c Conn, msg *protocol.Message) error {
	if h.maintenance() {
		return apperrors.ErrMaintenance
	}

	p, err := parse[protocol.CreateRoomPayload](msg)
	if err != nil {
		return err
	}
	gameMode, err := room.ParseGameMode(p.GameMode)
	if err != nil {
		return err
	}
	wordMode, err := room.ParseWordMode(p.WordMode)
	if err != nil {
		return err
	}

	// 已在房间中的连接不创建新房间，避免留下空房间
	if _, _, err := h.reg.Resolve(c.ID()); err == nil {
		return apperrors.ErrAlreadyInRoom
	}

	code, err := h.reg.CreateRoom(registry.RoomConfig{
		GameMode: gameMode,
		WordMode: wordMode,
		HardMode: p.HardMode,
	})
	if err != nil {
		return err
	}
	return h.join(ctx, c, code, p.PlayerName)
}

// handleJoinRoom 按房间号加入
func (h *Handler) handleJoinRoom(ctx context.Context, c Conn, msg *protocol.Message) error {
	if h.maintenance() {
		return apperrors.ErrMaintenance
	}

	p, err := parse[protocol.JoinRoomPayload](msg)
	if err != nil {
		return err
	}
	return h.join(ctx, c, p.RoomCode, p.PlayerName)
}

func (h *Handler) join(ctx context.Context, c Conn, code, name string) error {
	name = NormalizeName(name)

	res, err := h.reg.JoinRoom(ctx, c.ID(), code, name)
	if err != nil {
		return err
	}

	sess := h.sessions.Create(res.PlayerID, name, res.RoomCode)
	c.Send(codec.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomCode:       res.RoomCode,
		PlayerID:       res.PlayerID,
		ReconnectToken: sess.ReconnectToken,
		State:          res.State,
	}))
	return nil
}

// handleLeaveRoom 离开房间，会话由注册表的移除回调删除
func (h *Handler) handleLeaveRoom(ctx context.Context, c Conn, _ *protocol.Message) error {
	if err := h.reg.Leave(ctx, c.ID()); err != nil {
		return err
	}
	log.Info().Str("conn", c.ID()).Msg("👋 玩家离开房间")
	return nil
}

// handleSetReady 准备 / 取消准备
func (h *Handler) handleSetReady(ctx context.Context, c Conn, msg *protocol.Message) error {
	p, err := parse[protocol.SetReadyPayload](msg)
	if err != nil {
		return err
	}
	return h.reg.Dispatch(ctx, c.ID(), func(r *room.Room, playerID string, _ time.Time) ([]room.Event, error) {
		return r.SetReady(playerID, p.IsReady)
	})
}

// handleStartGame 房主开局
func (h *Handler) handleStartGame(ctx context.Context, c Conn, _ *protocol.Message) error {
	if h.maintenance() {
		return apperrors.ErrMaintenance
	}
	return h.reg.Dispatch(ctx, c.ID(), func(r *room.Room, playerID string, now time.Time) ([]room.Event, error) {
		return r.Start(playerID, now)
	})
}

// handlePlayAgain 房主在结算后重开
func (h *Handler) handlePlayAgain(ctx context.Context, c Conn, _ *protocol.Message) error {
	if h.maintenance() {
		return apperrors.ErrMaintenance
	}
	return h.reg.Dispatch(ctx, c.ID(), func(r *room.Room, playerID string, _ time.Time) ([]room.Event, error) {
		return r.PlayAgain(playerID)
	})
}
