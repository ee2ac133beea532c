package handler

import (
	"context"
	"time"

	"github.com/palemoky/wordle-party/internal/game/room"
	"github.com/palemoky/wordle-party/internal/protocol"
)

// handleSubmitGuess 提交猜测
func (h *Handler) handleSubmitGuess(ctx context.Context, c Conn, msg *protocol.Message) error {
	p, err := parse[protocol.SubmitGuessPayload](msg)
	if err != nil {
		return err
	}
	return h.reg.Dispatch(ctx, c.ID(), func(r *room.Room, playerID string, now time.Time) ([]room.Event, error) {
		return r.SubmitGuess(playerID, p.Word, now)
	})
}

// handleSubmitSabotageWord 为对手选词
func (h *Handler) handleSubmitSabotageWord(ctx context.Context, c Conn, msg *protocol.Message) error {
	p, err := parse[protocol.SubmitSabotageWordPayload](msg)
	if err != nil {
		return err
	}
	return h.reg.Dispatch(ctx, c.ID(), func(r *room.Room, playerID string, now time.Time) ([]room.Event, error) {
		return r.SubmitSabotageWord(playerID, p.Word, now)
	})
}
