package room

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/game/timer"
	"github.com/palemoky/wordle-party/internal/logger"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/server/storage"
)

const (
	mailboxSize          = 64
	defaultGrace         = 30 * time.Second
	defaultIdleTimeout   = 2 * time.Minute
	defaultRecordTimeout = 5 * time.Second
)

// Broadcaster 把事件投递到玩家的连接
type Broadcaster interface {
	SendToPlayers(roomCode string, playerIDs []string, msgType protocol.MessageType, payload any)
}

// Hooks 生命周期回调，在 actor 的 goroutine 中执行，不能反过来同步调用 Do
type Hooks struct {
	OnPlayerRemoved func(roomCode, playerID string)
	OnDestroy       func(roomCode string)
}

// ActorConfig actor 计时参数
type ActorConfig struct {
	ReconnectGrace time.Duration
	IdleTimeout    time.Duration
	RecordTimeout  time.Duration
}

// Deps actor 依赖
type Deps struct {
	Timers   *timer.Service
	Out      Broadcaster
	Recorder storage.Recorder
	Hooks    Hooks
	Config   ActorConfig
}

// Actor 单个房间的串行执行者：所有变更都在同一个 goroutine 中按到达顺序执行
type Actor struct {
	code     string
	room     *Room
	cfg      ActorConfig
	timers   *timer.Service
	out      Broadcaster
	recorder storage.Recorder
	hooks    Hooks

	mailbox   chan func()
	done      chan struct{}
	destroyed bool   // 仅在 actor goroutine 中读写
	idleEpoch uint64 // 同上，每次启停空闲计时器加一

	summary   atomic.Pointer[Summary]
	recording sync.WaitGroup
}

// marker 变更前的状态标记，用于比较阶段和成员变化
type marker struct {
	phase      Phase
	generation uint64
	players    []string
}

// NewActor 创建并启动房间 actor
func NewActor(r *Room, deps Deps) *Actor {
	cfg := deps.Config
	if cfg.ReconnectGrace <= 0 {
		cfg.ReconnectGrace = defaultGrace
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = defaultRecordTimeout
	}
	if deps.Timers == nil {
		deps.Timers = timer.NewService(nil)
	}

	a := &Actor{
		code:     r.Code,
		room:     r,
		cfg:      cfg,
		timers:   deps.Timers,
		out:      deps.Out,
		recorder: deps.Recorder,
		hooks:    deps.Hooks,
		mailbox:  make(chan func(), mailboxSize),
		done:     make(chan struct{}),
	}
	a.publish()

	// 建好但一直没人加入的房间同样会被空闲计时器回收
	a.armIdle()

	go a.run()
	return a
}

// Code 房间号
func (a *Actor) Code() string { return a.code }

// Summary 最近一次变更后的房间概要，可在任意 goroutine 调用
func (a *Actor) Summary() Summary { return *a.summary.Load() }

// Done actor 退出时关闭
func (a *Actor) Done() <-chan struct{} { return a.done }

// Do 在 actor 中执行 fn 并等待结果。房间已销毁时返回 ErrRoomNotFound
//
// ctx 只约束入队：任务进入 mailbox 后一定会执行，Do 会等到它的结果，
// 不会在变更已生效时向调用方报告失败。
func (a *Actor) Do(ctx context.Context, fn func(r *Room) ([]Event, error)) error {
	reply := make(chan error, 1)
	job := func() {
		defer func() {
			if r := recover(); r != nil {
				logger.LogPanic(r)
				reply <- apperrors.ErrInternal
			}
		}()
		reply <- a.apply(fn)
	}

	select {
	case a.mailbox <- job:
	case <-a.done:
		return apperrors.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-a.done:
		// 导致销毁的那次任务在 done 关闭前已经写入回复
		select {
		case err := <-reply:
			return err
		default:
			return apperrors.ErrRoomNotFound
		}
	}
}

// Close 异步销毁房间
func (a *Actor) Close() {
	a.post(func(*Room) []Event {
		a.destroy()
		return nil
	})
}

// Wait 等待所有异步持久化结束
func (a *Actor) Wait() { a.recording.Wait() }

// post 异步投递，不等待执行，供计时器回调使用
func (a *Actor) post(fn func(r *Room) []Event) {
	job := func() {
		_ = a.apply(func(r *Room) ([]Event, error) { return fn(r), nil })
	}
	select {
	case a.mailbox <- job:
	case <-a.done:
	}
}

func (a *Actor) run() {
	for {
		job := <-a.mailbox
		a.safeRun(job)
		if a.destroyed {
			// 回复已经写入后再关闭 done
			close(a.done)
			return
		}
	}
}

func (a *Actor) safeRun(job func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()
	job()
}

// apply 执行一次变更，然后同步计时器、投递事件、处理销毁
func (a *Actor) apply(fn func(r *Room) ([]Event, error)) error {
	if a.destroyed {
		return apperrors.ErrRoomNotFound
	}

	prev := a.mark()
	evs, err := fn(a.room)
	if a.destroyed {
		return err
	}

	a.afterMutation(prev)
	a.deliver(evs)

	switch {
	case a.room.PlayerCount() == 0 && len(prev.players) > 0:
		a.destroy()
	case a.room.PlayerCount() > 0:
		a.armIdle()
	}
	if !a.destroyed {
		a.publish()
	}
	return err
}

func (a *Actor) mark() marker {
	return marker{
		phase:      a.room.Phase,
		generation: a.room.Generation,
		players:    a.room.PlayerIDs(),
	}
}

func (a *Actor) now() time.Time { return a.timers.Clock().Now() }

func (a *Actor) key(kind timer.Kind, player string) timer.Key {
	return timer.Key{Room: a.code, Kind: kind, Player: player}
}

// afterMutation 根据阶段和成员变化启停计时器
func (a *Actor) afterMutation(prev marker) {
	r := a.room

	for _, id := range prev.players {
		if r.Has(id) {
			continue
		}
		a.timers.Clear(a.key(timer.KindGrace, id))
		if a.hooks.OnPlayerRemoved != nil {
			a.hooks.OnPlayerRemoved(a.code, id)
		}
	}

	for _, id := range r.order {
		key := a.key(timer.KindGrace, id)
		switch r.players[id].Connection {
		case Disconnected:
			if !a.timers.Active(key) {
				a.startGrace(id)
			}
		case Connected:
			a.timers.Clear(key)
		}
	}

	if prev.phase == r.Phase && prev.generation == r.Generation {
		return
	}

	if r.Phase != PhaseSelecting {
		a.timers.Clear(a.key(timer.KindSelection, ""))
	}
	if r.Phase != PhasePlaying {
		a.timers.Clear(a.key(timer.KindGame, ""))
	}

	gen := r.Generation
	switch r.Phase {
	case PhaseSelecting:
		a.timers.Start(a.key(timer.KindSelection, ""), r.SelectionDeadline.Sub(a.now()), func() {
			a.post(func(r *Room) []Event { return r.ExpireSelection(gen, a.now()) })
		})
		log.Info().Str("room", a.code).Uint64("generation", gen).Msg("📝 进入选词阶段")
	case PhasePlaying:
		a.timers.Start(a.key(timer.KindGame, ""), r.GameDeadline.Sub(a.now()), func() {
			a.post(func(r *Room) []Event { return r.ExpireGame(gen, a.now()) })
		})
		log.Info().Str("room", a.code).Uint64("generation", gen).Msg("🎮 对局开始")
	case PhaseResults:
		log.Info().Str("room", a.code).Str("reason", r.EndReason).Msg("🏁 对局结束")
		a.record(r.Snapshot())
	}
}

func (a *Actor) startGrace(id string) {
	epoch := a.room.players[id].GraceEpoch
	a.timers.Start(a.key(timer.KindGrace, id), a.cfg.ReconnectGrace, func() {
		a.post(func(r *Room) []Event {
			evs := r.ExpireGrace(id, epoch, a.now())
			if evs != nil {
				log.Info().Str("room", a.code).Str("player", id).Msg("⏰ 玩家重连超时，已移出房间")
			}
			return evs
		})
	})
}

// armIdle 无人在线时启动空闲计时器，有人在线时清除
func (a *Actor) armIdle() {
	key := a.key(timer.KindIdle, "")
	if a.room.ConnectedCount() > 0 {
		if a.timers.Clear(key) {
			a.idleEpoch++
		}
		return
	}
	if a.timers.Active(key) {
		return
	}
	a.idleEpoch++
	epoch := a.idleEpoch
	a.timers.Start(key, a.cfg.IdleTimeout, func() {
		a.post(func(r *Room) []Event {
			if epoch == a.idleEpoch && r.ConnectedCount() == 0 {
				log.Info().Str("room", a.code).Msg("🧹 房间长时间无人在线，清理房间")
				a.destroy()
			}
			return nil
		})
	})
}

func (a *Actor) deliver(evs []Event) {
	if a.out == nil || len(evs) == 0 {
		return
	}
	members := a.room.PlayerIDs()
	for _, e := range evs {
		if ids := e.Recipients(members); len(ids) > 0 {
			a.out.SendToPlayers(a.code, ids, e.Type, e.Payload)
		}
	}
}

// record 在快照上异步保存结果，失败只记日志
func (a *Actor) record(snap Snapshot) {
	if a.recorder == nil {
		return
	}
	res := snap.ToGameResult(uuid.NewString())

	a.recording.Add(1)
	go func() {
		defer a.recording.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.RecordTimeout)
		defer cancel()
		if err := a.recorder.RecordGameResult(ctx, res); err != nil {
			log.Warn().Err(err).Str("room", res.RoomCode).Str("game", res.GameID).Msg("⚠️ 保存对局结果失败")
		}
	}()
}

// destroy 清除计时器并通知注册表，只执行一次；done 在当前任务结束后关闭
func (a *Actor) destroy() {
	if a.destroyed {
		return
	}
	a.destroyed = true

	a.timers.ClearRoom(a.code)
	a.room.ResetRoom()
	a.summary.Store(&Summary{Code: a.code})

	if a.hooks.OnDestroy != nil {
		a.hooks.OnDestroy(a.code)
	}
	log.Info().Str("room", a.code).Msg("🏠 房间已解散")
}

func (a *Actor) publish() {
	s := a.room.Summary()
	a.summary.Store(&s)
}
