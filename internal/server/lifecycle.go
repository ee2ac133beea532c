package server

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

// 监控日志间隔
const statsInterval = 30 * time.Second

// monitorStats 定期输出服务器状态
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Info().
			Int("online", s.OnlineCount()).
			Int("rooms", s.reg.RoomCount()).
			Int("active_games", s.reg.ActiveGames()).
			Int("sessions", s.sessions.Len()).
			Int("goroutines", runtime.NumGoroutine()).
			Int("conns", len(s.semaphore)).
			Int("max_conns", cap(s.semaphore)).
			Float64("mem_mb", float64(m.Alloc)/1024/1024).
			Msg("📊 [监控]")
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接，停止建房、加入和开局
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	already := s.maintenanceMode
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()
	if already {
		return
	}

	s.BroadcastToLobby(codec.NewErrorMessage(apperrors.ErrMaintenance))
	log.Info().Msg("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的对局结束（最多 timeout），然后关闭
func (s *Server) GracefulShutdown(ctx context.Context, timeout time.Duration) {
	s.EnterMaintenanceMode()

	interval := s.config.Game.ShutdownCheckIntervalDuration()
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.After(timeout)

wait:
	for {
		active := s.reg.ActiveGames()
		if active == 0 {
			log.Info().Msg("✅ 所有对局已结束")
			break
		}
		log.Info().Int("active_games", active).Msg("⏳ 等待对局结束...")

		select {
		case <-ctx.Done():
			break wait
		case <-deadline:
			break wait
		case <-ticker.C:
		}
	}

	if active := s.reg.ActiveGames(); active > 0 {
		log.Warn().Int("active_games", active).Msg("⚠️ 超时，仍有对局进行中，强制关闭")
	}

	s.Shutdown(ctx)
}

// Shutdown 关闭监听、断开所有连接、销毁房间并关闭存储
func (s *Server) Shutdown(ctx context.Context) {
	s.httpMu.Lock()
	srv := s.httpServer
	s.httpMu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("HTTP 服务关闭异常")
		}
	}

	s.clientsMu.RLock()
	for _, c := range s.clients {
		c.Close()
	}
	s.clientsMu.RUnlock()

	// 销毁房间会等待所有对局结果写入存储
	s.reg.Close()

	if err := s.store.Close(); err != nil {
		log.Warn().Err(err).Msg("存储关闭异常")
	}

	log.Info().Msg("👋 服务器已关闭")
}
