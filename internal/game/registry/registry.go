// Package registry 管理活跃房间：生成房间号、维护连接索引，并把玩家动作路由到对应房间的 actor。
package registry

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/game/room"
	"github.com/palemoky/wordle-party/internal/game/timer"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/server/storage"
)

// Config 注册表参数
type Config struct {
	MaxPlayers       int
	CodeLength       int
	CodeAttempts     int
	SelectionTimeout time.Duration
	GameTimeout      time.Duration
	ReconnectGrace   time.Duration
	IdleTimeout      time.Duration
}

// Deps 注册表依赖
type Deps struct {
	Corpus   room.Corpus
	Timers   *timer.Service
	Out      room.Broadcaster
	Recorder storage.Recorder
	Rand     *rand.Rand

	// OnPlayerRemoved 玩家离开房间后调用（在 actor 协程中执行，不能回调注册表的阻塞方法）
	OnPlayerRemoved func(code, playerID string)
}

// RoomConfig 建房选项
type RoomConfig struct {
	GameMode room.GameMode
	WordMode room.WordMode
	HardMode bool
}

// JoinResult 加入或重连成功后的结果
type JoinResult struct {
	PlayerID string
	RoomCode string
	State    protocol.RoomStatePayload
}

// Action 在房间 actor 中执行的玩家动作
type Action func(r *room.Room, playerID string, now time.Time) ([]room.Event, error)

// Registry 房间注册表
//
// mu 只保护 actors 和索引，持锁期间从不等待 actor，
// actor 的回调可以安全地回来获取 mu。
type Registry struct {
	cfg      Config
	corpus   room.Corpus
	timers   *timer.Service
	out      room.Broadcaster
	recorder storage.Recorder
	removed  func(code, playerID string)

	mu     sync.Mutex
	actors map[string]*room.Actor
	index  *Index
	codes  *CodeGenerator
}

// New 创建注册表
func New(cfg Config, deps Deps) *Registry {
	if deps.Timers == nil {
		deps.Timers = timer.NewService(nil)
	}
	return &Registry{
		cfg:      cfg,
		corpus:   deps.Corpus,
		timers:   deps.Timers,
		out:      deps.Out,
		recorder: deps.Recorder,
		removed:  deps.OnPlayerRemoved,
		actors:   make(map[string]*room.Actor),
		index:    NewIndex(),
		codes:    NewCodeGenerator(deps.Rand, cfg.CodeLength, cfg.CodeAttempts),
	}
}

// SetBroadcaster 设置事件投递目标，只能在创建任何房间之前调用
func (reg *Registry) SetBroadcaster(out room.Broadcaster) { reg.out = out }

func (reg *Registry) now() time.Time { return reg.timers.Clock().Now() }

// CreateRoom 创建房间并返回房间号，房间号空间耗尽时返回 CapacityExceeded
func (reg *Registry) CreateRoom(cfg RoomConfig) (string, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, err := reg.codes.Generate(func(c string) bool {
		_, ok := reg.actors[c]
		return ok
	})
	if err != nil {
		log.Warn().Int("rooms", len(reg.actors)).Msg("⚠️ 房间号生成失败")
		return "", err
	}

	r := room.New(code, room.Config{
		GameMode:         cfg.GameMode,
		WordMode:         cfg.WordMode,
		HardMode:         cfg.HardMode,
		MaxPlayers:       reg.cfg.MaxPlayers,
		SelectionTimeout: reg.cfg.SelectionTimeout,
		GameTimeout:      reg.cfg.GameTimeout,
	}, reg.corpus)

	reg.actors[code] = room.NewActor(r, room.Deps{
		Timers:   reg.timers,
		Out:      reg.out,
		Recorder: reg.recorder,
		Hooks: room.Hooks{
			OnPlayerRemoved: reg.onPlayerRemoved,
			OnDestroy:       reg.onDestroy,
		},
		Config: room.ActorConfig{
			ReconnectGrace: reg.cfg.ReconnectGrace,
			IdleTimeout:    reg.cfg.IdleTimeout,
		},
	})

	log.Info().Str("room", code).Str("mode", string(r.GameMode)).Msg("🏠 房间已创建")
	return code, nil
}

// JoinRoom 把连接作为新玩家加入房间
func (reg *Registry) JoinRoom(ctx context.Context, connID, code, name string) (JoinResult, error) {
	code = NormalizeCode(code)

	reg.mu.Lock()
	if reg.index.Bound(connID) {
		reg.mu.Unlock()
		return JoinResult{}, apperrors.ErrAlreadyInRoom
	}
	a, ok := reg.actors[code]
	if !ok {
		reg.mu.Unlock()
		return JoinResult{}, apperrors.ErrRoomNotFound
	}
	// 先登记索引，保证加入后的广播能找到该连接
	playerID := uuid.NewString()
	reg.index.Bind(connID, playerID, code)
	reg.mu.Unlock()

	var res JoinResult
	err := a.Do(ctx, func(r *room.Room) ([]room.Event, error) {
		evs, err := r.Join(playerID, name)
		if err != nil {
			return nil, err
		}
		res = JoinResult{PlayerID: playerID, RoomCode: code, State: r.View()}
		return evs, nil
	})
	if err != nil {
		reg.mu.Lock()
		reg.index.RemovePlayer(playerID)
		reg.mu.Unlock()
		return JoinResult{}, err
	}

	log.Info().Str("room", code).Str("player", playerID).Str("name", name).Msg("👤 玩家加入房间")
	return res, nil
}

// Resolve 连接 → (玩家, 房间)，未绑定时返回 Unresolved 类错误
func (reg *Registry) Resolve(connID string) (playerID, code string, err error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	playerID, code, ok := reg.index.Resolve(connID)
	if !ok {
		return "", "", apperrors.ErrNotInRoom
	}
	return playerID, code, nil
}

// Dispatch 把连接的动作路由到所在房间的 actor 执行
func (reg *Registry) Dispatch(ctx context.Context, connID string, fn Action) error {
	playerID, code, err := reg.Resolve(connID)
	if err != nil {
		return err
	}
	a := reg.actor(code)
	if a == nil {
		return apperrors.ErrRoomNotFound
	}
	return a.Do(ctx, func(r *room.Room) ([]room.Event, error) {
		return fn(r, playerID, reg.now())
	})
}

// Leave 主动离开房间，索引条目由 actor 的移除回调统一清理
func (reg *Registry) Leave(ctx context.Context, connID string) error {
	return reg.Dispatch(ctx, connID, func(r *room.Room, playerID string, now time.Time) ([]room.Event, error) {
		return r.Leave(playerID, room.LeaveReasonLeft, now), nil
	})
}

// RemoveConnection 传输层断开：只解除连接绑定，玩家进入断线保留期
func (reg *Registry) RemoveConnection(ctx context.Context, connID string) {
	reg.mu.Lock()
	playerID, ok := reg.index.Unbind(connID)
	var a *room.Actor
	if ok {
		if code, found := reg.index.RoomOf(playerID); found {
			a = reg.actors[code]
		}
	}
	reg.mu.Unlock()

	if a == nil {
		return
	}

	deadline := reg.now().Add(reg.graceOrDefault())
	err := a.Do(ctx, func(r *room.Room) ([]room.Event, error) {
		return r.Disconnect(playerID, deadline), nil
	})
	if err != nil {
		log.Debug().Err(err).Str("player", playerID).Msg("断线处理时房间已不存在")
		return
	}
	log.Info().Str("room", a.Code()).Str("player", playerID).Msg("📴 玩家掉线，等待重连")
}

// Reconnect 把保留期内的玩家重新绑定到新连接
func (reg *Registry) Reconnect(ctx context.Context, connID, playerID string) (JoinResult, error) {
	reg.mu.Lock()
	if reg.index.Bound(connID) {
		reg.mu.Unlock()
		return JoinResult{}, apperrors.ErrAlreadyInRoom
	}
	code, ok := reg.index.RoomOf(playerID)
	a := reg.actors[code]
	if !ok || a == nil {
		reg.mu.Unlock()
		return JoinResult{}, apperrors.ErrReconnectFail
	}
	reg.index.Bind(connID, playerID, code)
	reg.mu.Unlock()

	var res JoinResult
	err := a.Do(ctx, func(r *room.Room) ([]room.Event, error) {
		evs, err := r.Reconnect(playerID)
		if err != nil {
			return nil, err
		}
		res = JoinResult{PlayerID: playerID, RoomCode: code, State: r.View()}
		return evs, nil
	})
	if err != nil {
		reg.mu.Lock()
		reg.index.Unbind(connID)
		reg.mu.Unlock()
		return JoinResult{}, err
	}

	log.Info().Str("room", code).Str("player", playerID).Msg("📶 玩家重连成功")
	return res, nil
}

// ConnOf 玩家当前连接
func (reg *Registry) ConnOf(playerID string) (string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.index.ConnOf(playerID)
}

// Rooms 所有房间概要，按房间号排序
func (reg *Registry) Rooms() []room.Summary {
	actors := reg.snapshotActors()
	out := make([]room.Summary, 0, len(actors))
	for _, a := range actors {
		out = append(out, a.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// OpenRooms 可以加入的房间（等待中且未满）
func (reg *Registry) OpenRooms() []room.Summary {
	var out []room.Summary
	for _, s := range reg.Rooms() {
		if s.Phase == room.PhaseWaiting && s.Players < s.MaxPlayers {
			out = append(out, s)
		}
	}
	return out
}

// ActiveGames 正在选词或猜词的房间数
func (reg *Registry) ActiveGames() int {
	n := 0
	for _, s := range reg.Rooms() {
		if s.Phase.InGame() {
			n++
		}
	}
	return n
}

// RoomCount 活跃房间数
func (reg *Registry) RoomCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.actors)
}

// CheckIndex 校验连接索引，供测试使用
func (reg *Registry) CheckIndex() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.index.Check()
}

// Close 销毁所有房间并等待持久化完成
func (reg *Registry) Close() {
	actors := reg.snapshotActors()
	for _, a := range actors {
		a.Close()
	}
	for _, a := range actors {
		<-a.Done()
		a.Wait()
	}
}

// NormalizeCode 房间号统一大写并去掉空白
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (reg *Registry) actor(code string) *room.Actor {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.actors[code]
}

func (reg *Registry) snapshotActors() []*room.Actor {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]*room.Actor, 0, len(reg.actors))
	for _, a := range reg.actors {
		out = append(out, a)
	}
	return out
}

func (reg *Registry) graceOrDefault() time.Duration {
	if reg.cfg.ReconnectGrace > 0 {
		return reg.cfg.ReconnectGrace
	}
	return 30 * time.Second
}

func (reg *Registry) onPlayerRemoved(code, playerID string) {
	reg.mu.Lock()
	reg.index.RemovePlayer(playerID)
	reg.mu.Unlock()

	if reg.removed != nil {
		reg.removed(code, playerID)
	}
}

func (reg *Registry) onDestroy(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.actors, code)
	reg.index.RemoveRoom(code)
}
