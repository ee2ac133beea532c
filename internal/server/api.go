package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/game/room"
	"github.com/palemoky/wordle-party/internal/server/storage"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// dailyBoard 支持按天排行榜的存储后端
type dailyBoard interface {
	GetDailyLeaderboard(ctx context.Context, day time.Time, limit int) ([]storage.LeaderboardEntry, error)
}

type errorBody struct {
	Error string `json:"error"`
	Path  string `json:"path,omitempty"`
}

type healthBody struct {
	Status      string `json:"status"`
	Maintenance bool   `json:"maintenance"`
	Rooms       int    `json:"rooms"`
	ActiveGames int    `json:"active_games"`
	Online      int    `json:"online"`
}

// jsonContentType 默认返回 JSON
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("写入响应失败")
	}
}

// parseLimit 解析 ?limit=，缺省或非法时使用默认值
func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{
		Status:      "ok",
		Maintenance: s.IsMaintenanceMode(),
		Rooms:       s.reg.RoomCount(),
		ActiveGames: s.reg.ActiveGames(),
		Online:      s.OnlineCount(),
	})
}

// handleRooms 可加入的房间列表
func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := s.reg.OpenRooms()
	if rooms == nil {
		rooms = []room.Summary{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

// handlePlayerStats 玩家统计
func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	stats, err := s.store.GetPlayerStats(r.Context(), name)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if stats == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "player_not_found", Path: r.URL.Path})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleLeaderboard 总排行榜
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.GetLeaderboard(r.Context(), parseLimit(r))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []storage.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleDailyLeaderboard 当日排行榜，只有 Redis 后端支持
func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, ok := s.store.(dailyBoard)
	if !ok {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "not_supported", Path: r.URL.Path})
		return
	}

	day := time.Now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_date", Path: r.URL.Path})
			return
		}
		day = parsed
	}

	entries, err := board.GetDailyLeaderboard(r.Context(), day, parseLimit(r))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []storage.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleRecentGames 最近对局
func (s *Server) handleRecentGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.GetRecentGames(r.Context(), parseLimit(r))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if games == nil {
		games = []storage.GameResult{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("path", r.URL.Path).Msg("❌ 查询存储失败")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "store_error", Path: r.URL.Path})
}
