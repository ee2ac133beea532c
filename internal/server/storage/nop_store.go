package storage

import "context"

// NopStore 不保存任何数据，storage.driver 为 none 时使用
type NopStore struct{}

// RecordGameResult 丢弃结果
func (NopStore) RecordGameResult(context.Context, *GameResult) error { return nil }

// GetPlayerStats 总是返回 nil
func (NopStore) GetPlayerStats(context.Context, string) (*PlayerStats, error) { return nil, nil }

// GetLeaderboard 总是返回空榜
func (NopStore) GetLeaderboard(context.Context, int) ([]LeaderboardEntry, error) { return nil, nil }

// GetRecentGames 总是返回空
func (NopStore) GetRecentGames(context.Context, int) ([]GameResult, error) { return nil, nil }

func (NopStore) Close() error { return nil }

var (
	_ Store = NopStore{}
	_ Store = (*RedisStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
