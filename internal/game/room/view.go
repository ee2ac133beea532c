package room

import (
	"slices"
	"sort"
	"time"

	"github.com/palemoky/wordle-party/internal/game/sabotage"
	"github.com/palemoky/wordle-party/internal/protocol"
)

// Snapshot 房间的不可变副本，供计时器回调和异步持久化使用
type Snapshot struct {
	Code              string
	GameMode          GameMode
	WordMode          WordMode
	HardMode          bool
	Phase             Phase
	TargetWord        string
	Generation        uint64
	Players           []PlayerState
	Assignments       []sabotage.WordAssignment
	SelectionDeadline time.Time
	GameStartedAt     time.Time
	GameDeadline      time.Time
	EndReason         string
	EndedAt           time.Time
}

// Summary 房间列表用的概要
type Summary struct {
	Code       string   `json:"code"`
	Phase      Phase    `json:"phase"`
	GameMode   GameMode `json:"game_mode"`
	WordMode   WordMode `json:"word_mode"`
	HardMode   bool     `json:"hard_mode"`
	Players    int      `json:"players"`
	Connected  int      `json:"connected"`
	MaxPlayers int      `json:"max_players"`
}

// Snapshot 深拷贝当前状态
func (r *Room) Snapshot() Snapshot {
	return Snapshot{
		Code:              r.Code,
		GameMode:          r.GameMode,
		WordMode:          r.WordMode,
		HardMode:          r.HardMode,
		Phase:             r.Phase,
		TargetWord:        r.TargetWord,
		Generation:        r.Generation,
		Players:           r.Players(),
		Assignments:       slices.Clone(r.Assignments),
		SelectionDeadline: r.SelectionDeadline,
		GameStartedAt:     r.GameStartedAt,
		GameDeadline:      r.GameDeadline,
		EndReason:         r.EndReason,
		EndedAt:           r.EndedAt,
	}
}

// Summary 返回房间概要
func (r *Room) Summary() Summary {
	return Summary{
		Code:       r.Code,
		Phase:      r.Phase,
		GameMode:   r.GameMode,
		WordMode:   r.WordMode,
		HardMode:   r.HardMode,
		Players:    len(r.players),
		Connected:  r.ConnectedCount(),
		MaxPlayers: r.MaxPlayers,
	}
}

// View 转换为线上的房间状态，不包含任何目标词
func (r *Room) View() protocol.RoomStatePayload {
	players := make([]protocol.PlayerInfo, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, playerInfo(r.players[id], r.GameStartedAt))
	}
	return protocol.RoomStatePayload{
		Code:              r.Code,
		GameMode:          string(r.GameMode),
		WordMode:          string(r.WordMode),
		HardMode:          r.HardMode,
		Phase:             string(r.Phase),
		Players:           players,
		SelectionDeadline: unixMilli(r.SelectionDeadline),
		GameStartedAt:     unixMilli(r.GameStartedAt),
		GameDeadline:      unixMilli(r.GameDeadline),
		Generation:        r.Generation,
	}
}

// TargetFor 返回快照中玩家的目标词
func (s Snapshot) TargetFor(id string) string {
	return targetFor(s.GameMode, s.TargetWord, s.Assignments, id)
}

// Ranked 按名次排序：猜中优先，其次猜测次数少，再次用时短；未猜中的按加入顺序
func (s Snapshot) Ranked() []PlayerState {
	out := slices.Clone(s.Players)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Won != b.Won {
			return a.Won
		}
		if !a.Won {
			return false
		}
		if len(a.Guesses) != len(b.Guesses) {
			return len(a.Guesses) < len(b.Guesses)
		}
		return a.FinishTime.Before(b.FinishTime)
	})
	return out
}

// GameOver 构造结算消息
func (s Snapshot) GameOver() protocol.GameOverPayload {
	ranked := s.Ranked()
	results := make([]protocol.PlayerResult, 0, len(ranked))
	for i, p := range ranked {
		results = append(results, protocol.PlayerResult{
			Rank:         i + 1,
			PlayerID:     p.ID,
			PlayerName:   p.Name,
			Won:          p.Won,
			Guesses:      len(p.Guesses),
			FinishTimeMs: elapsedMs(s.GameStartedAt, p.FinishTime),
			Word:         s.TargetFor(p.ID),
		})
	}

	payload := protocol.GameOverPayload{Reason: s.EndReason, Results: results}
	if s.GameMode == ModeSabotage {
		for _, a := range s.Assignments {
			payload.Assignments = append(payload.Assignments, protocol.AssignmentInfo{
				TargetID:   a.TargetID,
				TargetName: a.TargetName,
				Word:       a.Word,
				PickerID:   a.PickerID,
				PickerName: a.PickerName,
			})
		}
	} else {
		payload.TargetWord = s.TargetWord
	}
	return payload
}

func playerInfo(p *PlayerState, startedAt time.Time) protocol.PlayerInfo {
	info := protocol.PlayerInfo{
		ID:           p.ID,
		Name:         p.Name,
		IsCreator:    p.IsCreator,
		IsReady:      p.IsReady,
		Connection:   string(p.Connection),
		GuessCount:   len(p.Guesses),
		Finished:     p.Finished,
		Won:          p.Won,
		FinishTimeMs: elapsedMs(startedAt, p.FinishTime),
	}
	for _, res := range p.Results {
		info.Results = append(info.Results, res.Strings())
	}
	return info
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func elapsedMs(start, end time.Time) int64 {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start).Milliseconds()
}
