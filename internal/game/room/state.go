package room

import (
	"strings"

	"github.com/palemoky/wordle-party/internal/apperrors"
)

// Phase 房间阶段
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseWaiting   Phase = "waiting"
	PhaseSelecting Phase = "selecting" // 仅破坏模式
	PhasePlaying   Phase = "playing"
	PhaseResults   Phase = "results"
)

// InGame 是否处于对局中（选词或猜词）
func (p Phase) InGame() bool {
	return p == PhaseSelecting || p == PhasePlaying
}

// GameMode 玩法
type GameMode string

const (
	ModeClassic  GameMode = "classic"  // 所有人猜同一个词
	ModeSabotage GameMode = "sabotage" // 互相为对方选词
)

// WordMode 经典模式下目标词的来源
type WordMode string

const (
	WordRandom WordMode = "random"
	WordDaily  WordMode = "daily"
)

// ConnectionState 玩家连接状态
type ConnectionState string

const (
	Connected    ConnectionState = "connected"
	Disconnected ConnectionState = "disconnected"
	TimedOut     ConnectionState = "timed_out"
)

// 对局结束原因
const (
	ReasonAllFinished = "all_finished"
	ReasonTimeout     = "timeout"
)

// 离开原因
const (
	LeaveReasonLeft     = "left"
	LeaveReasonTimedOut = "timed_out"
)

// ParseGameMode 解析玩法，空串视为经典模式
func ParseGameMode(s string) (GameMode, error) {
	switch GameMode(strings.ToLower(s)) {
	case "", ModeClassic:
		return ModeClassic, nil
	case ModeSabotage:
		return ModeSabotage, nil
	default:
		return "", apperrors.ErrInvalidConfig.WithMessage("未知玩法: " + s)
	}
}

// ParseWordMode 解析选词方式，空串视为随机
func ParseWordMode(s string) (WordMode, error) {
	switch WordMode(strings.ToLower(s)) {
	case "", WordRandom:
		return WordRandom, nil
	case WordDaily:
		return WordDaily, nil
	default:
		return "", apperrors.ErrInvalidConfig.WithMessage("未知选词方式: " + s)
	}
}

// AllPlayersReady 每次调用时根据玩家列表计算，不做缓存
func AllPlayersReady(players []PlayerState) bool {
	if len(players) == 0 {
		return false
	}
	for _, p := range players {
		if !p.IsReady {
			return false
		}
	}
	return true
}
