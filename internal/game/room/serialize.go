package room

import (
	"github.com/palemoky/wordle-party/internal/server/storage"
)

// ToGameResult 将结算快照转换为可持久化的 GameResult
func (s Snapshot) ToGameResult(gameID string) *storage.GameResult {
	res := &storage.GameResult{
		GameID:     gameID,
		RoomCode:   s.Code,
		GameMode:   string(s.GameMode),
		WordMode:   string(s.WordMode),
		HardMode:   s.HardMode,
		Generation: s.Generation,
		Reason:     s.EndReason,
		StartedAt:  s.GameStartedAt,
		EndedAt:    s.EndedAt,
		Players:    make([]storage.PlayerResult, 0, len(s.Players)),
	}

	for _, p := range s.Players {
		res.Players = append(res.Players, storage.PlayerResult{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			TargetWord: s.TargetFor(p.ID),
			Won:        p.Won,
			Guesses:    len(p.Guesses),
			DurationMs: elapsedMs(s.GameStartedAt, p.FinishTime),
		})
	}

	return res
}
