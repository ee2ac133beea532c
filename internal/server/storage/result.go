package storage

import (
	"context"
	"time"
)

// GameResult 一局结束后的不可变快照，由房间 actor 构造后交给存储层
type GameResult struct {
	GameID     string         `json:"game_id"`
	RoomCode   string         `json:"room_code"`
	GameMode   string         `json:"game_mode"`
	WordMode   string         `json:"word_mode"`
	HardMode   bool           `json:"hard_mode"`
	Generation uint64         `json:"generation"`
	Reason     string         `json:"reason"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
	Players    []PlayerResult `json:"players"`
}

// PlayerResult 单个玩家的成绩
type PlayerResult struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	TargetWord string `json:"target_word"`
	Won        bool   `json:"won"`
	Guesses    int    `json:"guesses"`
	DurationMs int64  `json:"duration_ms"`
}

// Recorder 持久化网关，调用方不等待结果
type Recorder interface {
	RecordGameResult(ctx context.Context, result *GameResult) error
}

// StatsReader 玩家统计与排行榜查询
type StatsReader interface {
	GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error)
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// History 最近对局查询
type History interface {
	GetRecentGames(ctx context.Context, limit int) ([]GameResult, error)
}

// Store 存储后端
type Store interface {
	Recorder
	StatsReader
	History
	Close() error
}

// PlayerStats 玩家统计（按玩家名聚合）
type PlayerStats struct {
	PlayerName    string  `json:"player_name"`
	TotalGames    int     `json:"total_games"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
	Score         int     `json:"score"`
	CurrentStreak int     `json:"current_streak"` // 正数为连胜，负数为连败
	MaxWinStreak  int     `json:"max_win_streak"`
	Distribution  [6]int  `json:"distribution"` // 第 1~6 次猜中的局数
	LastPlayedAt  int64   `json:"last_played_at"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	TotalGames int     `json:"total_games"`
	WinRate    float64 `json:"win_rate"`
}

// 积分规则
const (
	baseWinScore = 10 // 猜中基础分
	lossScore    = -3 // 未猜中

	streakBonus3  = 2
	streakBonus5  = 5
	streakBonus10 = 10
)

// applyResult 按一局成绩更新统计和积分（不低于 0），返回积分变化
func applyResult(stats *PlayerStats, r PlayerResult, playedAt time.Time) int {
	stats.PlayerName = r.PlayerName
	stats.TotalGames++
	stats.LastPlayedAt = playedAt.Unix()

	var delta int
	if r.Won {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
		if r.Guesses >= 1 && r.Guesses <= len(stats.Distribution) {
			stats.Distribution[r.Guesses-1]++
			// 猜得越少分越高
			delta = baseWinScore + (len(stats.Distribution) - r.Guesses)
		} else {
			delta = baseWinScore
		}
	} else {
		stats.Losses++
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
		delta = lossScore
	}

	if stats.CurrentStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.CurrentStreak
	}
	stats.WinRate = winRate(stats.Wins, stats.TotalGames)

	delta += streakBonus(stats.CurrentStreak)
	stats.Score = max(0, stats.Score+delta)
	return delta
}

func streakBonus(streak int) int {
	switch {
	case streak >= 10:
		return streakBonus10
	case streak >= 5:
		return streakBonus5
	case streak >= 3:
		return streakBonus3
	default:
		return 0
	}
}

func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}
