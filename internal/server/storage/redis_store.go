package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// Redis key 前缀
	statsKeyPrefix   = "wordle:stats:"
	gameKeyPrefix    = "wordle:game:"
	leaderboardKey   = "wordle:leaderboard"
	dailyBoardPrefix = "wordle:leaderboard:daily:"
	recentGamesKey   = "wordle:games:recent"

	gameExpiration       = 7 * 24 * time.Hour
	dailyBoardExpiration = 48 * time.Hour
	recentGamesLimit     = 100

	// WATCH 冲突时的重试次数
	maxTxRetries = 5
)

// RedisStore Redis 存储：玩家统计、总榜和日榜、最近对局
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Ping 检查连接
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Close 关闭连接
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

// RecordGameResult 保存对局并更新每个玩家的统计和排行榜
func (rs *RedisStore) RecordGameResult(ctx context.Context, result *GameResult) error {
	if result == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化对局结果失败: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, gameKeyPrefix+result.GameID, data, gameExpiration)
	pipe.LPush(ctx, recentGamesKey, result.GameID)
	pipe.LTrim(ctx, recentGamesKey, 0, recentGamesLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("保存对局失败: %w", err)
	}

	playedAt := result.EndedAt
	if playedAt.IsZero() {
		playedAt = rs.now()
	}
	for _, p := range result.Players {
		if p.PlayerName == "" {
			continue
		}
		if err := rs.updatePlayer(ctx, p, playedAt); err != nil {
			return fmt.Errorf("更新玩家 %s 统计失败: %w", p.PlayerName, err)
		}
	}

	log.Debug().Str("game", result.GameID).Int("players", len(result.Players)).Msg("💾 对局结果已保存")
	return nil
}

// updatePlayer 用 WATCH 保证同名玩家的并发结算不会互相覆盖
func (rs *RedisStore) updatePlayer(ctx context.Context, p PlayerResult, playedAt time.Time) error {
	key := statsKeyPrefix + p.PlayerName
	dailyKey := dailyBoardPrefix + playedAt.UTC().Format("2006-01-02")

	txf := func(tx *redis.Tx) error {
		stats, err := loadStats(ctx, tx, p.PlayerName)
		if err != nil {
			return err
		}
		if stats == nil {
			stats = &PlayerStats{PlayerName: p.PlayerName}
		}

		delta := applyResult(stats, p, playedAt)
		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(stats.Score), Member: p.PlayerName})
			pipe.ZIncrBy(ctx, dailyKey, float64(delta), p.PlayerName)
			pipe.Expire(ctx, dailyKey, dailyBoardExpiration)
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := rs.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (rs *RedisStore) GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	return loadStats(ctx, rs.client, playerName)
}

// GetLeaderboard 获取总榜（从高到低）
func (rs *RedisStore) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	return rs.board(ctx, leaderboardKey, limit)
}

// GetDailyLeaderboard 获取指定日期（UTC）的日榜，分数为当日积分变化之和
func (rs *RedisStore) GetDailyLeaderboard(ctx context.Context, day time.Time, limit int) ([]LeaderboardEntry, error) {
	return rs.board(ctx, dailyBoardPrefix+day.UTC().Format("2006-01-02"), limit)
}

// GetRecentGames 最近的对局，新的在前
func (rs *RedisStore) GetRecentGames(ctx context.Context, limit int) ([]GameResult, error) {
	if limit <= 0 {
		limit = 20
	}
	ids, err := rs.client.LRange(ctx, recentGamesKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]GameResult, 0, len(ids))
	for _, id := range ids {
		data, err := rs.client.Get(ctx, gameKeyPrefix+id).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // 已过期
		}
		if err != nil {
			return nil, err
		}
		var g GameResult
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("反序列化对局 %s 失败: %w", id, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// GetPlayerRank 获取玩家总榜排名，未上榜返回 -1
func (rs *RedisStore) GetPlayerRank(ctx context.Context, playerName string) (int64, error) {
	rank, err := rs.client.ZRevRank(ctx, leaderboardKey, playerName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}

func (rs *RedisStore) board(ctx context.Context, key string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	results, err := rs.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, z := range results {
		name, _ := z.Member.(string)
		entry := LeaderboardEntry{Rank: i + 1, PlayerName: name, Score: int(z.Score)}

		stats, err := rs.GetPlayerStats(ctx, name)
		if err != nil {
			return nil, err
		}
		if stats != nil {
			entry.Wins = stats.Wins
			entry.TotalGames = stats.TotalGames
			entry.WinRate = stats.WinRate
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// getter *redis.Client 和 *redis.Tx 共有的读接口
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadStats(ctx context.Context, c getter, playerName string) (*PlayerStats, error) {
	data, err := c.Get(ctx, statsKeyPrefix+playerName).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("反序列化玩家统计失败: %w", err)
	}
	return &stats, nil
}
