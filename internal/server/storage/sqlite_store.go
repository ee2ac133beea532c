package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteStore 嵌入式存储，适合单机部署
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite 打开（不存在则创建）数据库并执行迁移
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录 %s 失败: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// 单写连接，避免事务之间 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close 关闭数据库
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate 按文件名顺序执行嵌入的迁移，已执行的记录在 _migrations 中
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		text, err := migrationFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(text)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("🗄️ 数据库迁移完成")
	}
	return nil
}

// RecordGameResult 在一个事务中写入对局、玩家成绩和统计
func (s *SQLiteStore) RecordGameResult(ctx context.Context, result *GameResult) error {
	if result == nil {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	endedAt := result.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO games
			(id, room_code, game_mode, word_mode, hard_mode, generation, reason, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.GameID, result.RoomCode, result.GameMode, result.WordMode, result.HardMode,
		int64(result.Generation), result.Reason, result.StartedAt.UnixMilli(), endedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("写入对局失败: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// 同一局重复提交，统计已经算过
		return nil
	}

	for _, p := range result.Players {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_players
				(game_id, player_id, player_name, target_word, won, guesses, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			result.GameID, p.PlayerID, p.PlayerName, p.TargetWord, p.Won, p.Guesses, p.DurationMs,
		); err != nil {
			return fmt.Errorf("写入玩家成绩失败: %w", err)
		}
		if p.PlayerName == "" {
			continue
		}
		if err := updateStatsTx(ctx, tx, p, endedAt); err != nil {
			return fmt.Errorf("更新玩家 %s 统计失败: %w", p.PlayerName, err)
		}
	}

	return tx.Commit()
}

func updateStatsTx(ctx context.Context, tx *sql.Tx, p PlayerResult, playedAt time.Time) error {
	stats, err := queryStats(ctx, tx, p.PlayerName)
	if err != nil {
		return err
	}
	if stats == nil {
		stats = &PlayerStats{PlayerName: p.PlayerName}
	}
	applyResult(stats, p, playedAt)

	dist, err := json.Marshal(stats.Distribution)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO player_stats
			(player_name, total_games, wins, losses, score, current_streak, max_win_streak, distribution, last_played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_name) DO UPDATE SET
			total_games    = excluded.total_games,
			wins           = excluded.wins,
			losses         = excluded.losses,
			score          = excluded.score,
			current_streak = excluded.current_streak,
			max_win_streak = excluded.max_win_streak,
			distribution   = excluded.distribution,
			last_played_at = excluded.last_played_at`,
		stats.PlayerName, stats.TotalGames, stats.Wins, stats.Losses, stats.Score,
		stats.CurrentStreak, stats.MaxWinStreak, string(dist), stats.LastPlayedAt,
	)
	return err
}

// queryer *sql.DB 和 *sql.Tx 共有的查询接口
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const statsColumns = `player_name, total_games, wins, losses, score, current_streak, max_win_streak, distribution, last_played_at`

func scanStats(row interface{ Scan(...any) error }) (*PlayerStats, error) {
	var (
		st   PlayerStats
		dist string
	)
	if err := row.Scan(&st.PlayerName, &st.TotalGames, &st.Wins, &st.Losses, &st.Score,
		&st.CurrentStreak, &st.MaxWinStreak, &dist, &st.LastPlayedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(dist), &st.Distribution); err != nil {
		return nil, fmt.Errorf("解析猜中分布失败: %w", err)
	}
	st.WinRate = winRate(st.Wins, st.TotalGames)
	return &st, nil
}

func queryStats(ctx context.Context, q queryer, playerName string) (*PlayerStats, error) {
	row := q.QueryRowContext(ctx, `SELECT `+statsColumns+` FROM player_stats WHERE player_name=?`, playerName)
	st, err := scanStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return st, err
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (s *SQLiteStore) GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	return queryStats(ctx, s.db, playerName)
}

// GetLeaderboard 积分从高到低，同分按胜场、玩家名
func (s *SQLiteStore) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+statsColumns+`
		FROM player_stats
		ORDER BY score DESC, wins DESC, player_name ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaderboardEntry, 0, limit)
	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, LeaderboardEntry{
			Rank:       len(out) + 1,
			PlayerName: st.PlayerName,
			Score:      st.Score,
			Wins:       st.Wins,
			TotalGames: st.TotalGames,
			WinRate:    st.WinRate,
		})
	}
	return out, rows.Err()
}

// GetRecentGames 最近的对局，新的在前
func (s *SQLiteStore) GetRecentGames(ctx context.Context, limit int) ([]GameResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_code, game_mode, word_mode, hard_mode, generation, reason, started_at, ended_at
		FROM games
		ORDER BY ended_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	var games []GameResult
	for rows.Next() {
		var (
			g              GameResult
			gen            int64
			started, ended int64
		)
		if err := rows.Scan(&g.GameID, &g.RoomCode, &g.GameMode, &g.WordMode, &g.HardMode,
			&gen, &g.Reason, &started, &ended); err != nil {
			rows.Close()
			return nil, err
		}
		g.Generation = uint64(gen)
		g.StartedAt = time.UnixMilli(started).UTC()
		g.EndedAt = time.UnixMilli(ended).UTC()
		games = append(games, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 单连接下必须先关闭上一个结果集再查询
	for i := range games {
		players, err := s.gamePlayers(ctx, games[i].GameID)
		if err != nil {
			return nil, err
		}
		games[i].Players = players
	}
	return games, nil
}

func (s *SQLiteStore) gamePlayers(ctx context.Context, gameID string) ([]PlayerResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, player_name, target_word, won, guesses, duration_ms
		FROM game_players
		WHERE game_id=?
		ORDER BY rowid`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerResult
	for rows.Next() {
		var p PlayerResult
		if err := rows.Scan(&p.PlayerID, &p.PlayerName, &p.TargetWord, &p.Won, &p.Guesses, &p.DurationMs); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
