// Package server 提供 WebSocket 游戏服务与只读 HTTP 查询接口。
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/config"
	"github.com/palemoky/wordle-party/internal/game/registry"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
	"github.com/palemoky/wordle-party/internal/server/handler"
	"github.com/palemoky/wordle-party/internal/server/session"
	"github.com/palemoky/wordle-party/internal/server/storage"
)

// HTTP 查询接口的处理超时
const apiTimeout = 5 * time.Second

// Deps 服务器依赖
type Deps struct {
	Registry *registry.Registry
	Sessions *session.Manager
	Store    storage.Store
}

// Server WebSocket 服务器
type Server struct {
	config   *config.Config
	reg      *registry.Registry
	sessions *session.Manager
	store    storage.Store
	handler  *handler.Handler
	format   codec.Format
	upgrader websocket.Upgrader
	router   chi.Router

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	originChecker *OriginChecker
	connLimiter   *ConnLimiter

	// 信号量控制并发连接数
	semaphore chan struct{}

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	httpMu     sync.Mutex
	httpServer *http.Server
}

// New 创建服务器实例，并把自己设置为注册表的事件投递目标
func New(cfg *config.Config, deps Deps) (*Server, error) {
	format, err := codec.ParseFormat(cfg.Server.Codec)
	if err != nil {
		return nil, err
	}
	if deps.Store == nil {
		deps.Store = storage.NopStore{}
	}

	s := &Server{
		config:   cfg,
		reg:      deps.Registry,
		sessions: deps.Sessions,
		store:    deps.Store,
		format:   format,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 来源在升级前已由 originChecker 校验
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:       make(map[string]*Client),
		originChecker: NewOriginChecker(cfg.Security.AllowedOrigins),
		connLimiter:   NewConnLimiter(cfg.Security.RateLimit),
		semaphore:     make(chan struct{}, cfg.Server.MaxConnections),
	}

	deps.Registry.SetBroadcaster(s)
	s.handler = handler.New(handler.Deps{
		Registry: deps.Registry,
		Sessions: deps.Sessions,
		Status:   s,
	})
	s.router = s.routes()

	log.Info().
		Float64("conn_rate", cfg.Security.RateLimit.PerSecond).
		Float64("msg_rate", cfg.Security.MessageLimit.PerSecond).
		Int("max_connections", cfg.Server.MaxConnections).
		Str("codec", string(format)).
		Msg("🔒 安全配置")

	return s, nil
}

// routes 注册 WebSocket 入口和只读查询接口
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(apiTimeout))
		r.Use(jsonContentType)

		r.Get("/health", s.handleHealth)
		r.Route("/api", func(r chi.Router) {
			r.Get("/rooms", s.handleRooms)
			r.Get("/stats/{name}", s.handlePlayerStats)
			r.Get("/leaderboard", s.handleLeaderboard)
			r.Get("/leaderboard/daily", s.handleDailyLeaderboard)
			r.Get("/games/recent", s.handleRecentGames)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Path: r.URL.Path})
	})
	return r
}

// Handler 返回 HTTP 入口，测试时可直接挂到 httptest.Server
func (s *Server) Handler() http.Handler { return s.router }

// Start 启动服务器，阻塞直到 ctx 结束或监听失败
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, fmt.Sprint(s.config.Server.Port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.httpMu.Lock()
	s.httpServer = srv
	s.httpMu.Unlock()

	go s.monitorStats(ctx)
	go s.sessions.Run(ctx)
	go s.connLimiter.Run(ctx)

	log.Info().Str("addr", "ws://"+addr+"/ws").Int("cpus", runtime.NumCPU()).Msg("🚀 服务器启动")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
