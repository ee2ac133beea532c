// Package timer 管理房间的倒计时（选词截止、对局时钟、断线保留、空闲销毁）。
//
// 同一 Key 只会有一个计时器。Clear 幂等；计时器被清除或替换后，
// 即使底层定时器已经触发，回调也不会再执行，每个回调最多执行一次。
package timer

import (
	"sync"
	"time"
)

// Kind 计时器类别
type Kind string

const (
	KindSelection Kind = "selection" // 选词截止
	KindGame      Kind = "game"      // 对局超时
	KindIdle      Kind = "idle"      // 房间无人在线
	KindGrace     Kind = "grace"     // 玩家断线保留（按玩家）
)

// Key 计时器标识，Player 只用于 KindGrace
type Key struct {
	Room   string
	Kind   Kind
	Player string
}

// Stopper 可停止的底层定时器
type Stopper interface {
	Stop() bool
}

// Clock 时间源，测试中可替换为手动推进的时钟
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }

// RealClock 返回系统时钟
func RealClock() Clock { return realClock{} }

type entry struct {
	stop     Stopper
	token    uint64
	deadline time.Time
}

// Service 计时器服务，可被多个房间并发使用
type Service struct {
	clock   Clock
	mu      sync.Mutex
	entries map[Key]*entry
	next    uint64
}

// NewService 创建计时器服务，clock 为 nil 时使用系统时钟
func NewService(clock Clock) *Service {
	if clock == nil {
		clock = RealClock()
	}
	return &Service{
		clock:   clock,
		entries: make(map[Key]*entry),
	}
}

// Clock 返回时间源
func (s *Service) Clock() Clock { return s.clock }

// Start 启动计时器并返回截止时间，同 Key 已有计时器时先清除
func (s *Service) Start(key Key, d time.Duration, onExpire func()) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		old.stop.Stop()
		delete(s.entries, key)
	}

	s.next++
	token := s.next
	e := &entry{token: token, deadline: s.clock.Now().Add(d)}
	s.entries[key] = e
	e.stop = s.clock.AfterFunc(d, func() { s.fire(key, token, onExpire) })

	return e.deadline
}

// fire 只有当前有效的计时器才会执行回调
func (s *Service) fire(key Key, token uint64, onExpire func()) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.token != token {
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	s.mu.Unlock()

	onExpire()
}

// Clear 清除计时器，返回是否真的清除了一个运行中的计时器
func (s *Service) Clear(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.stop.Stop()
	delete(s.entries, key)
	return true
}

// ClearRoom 清除房间的所有计时器，返回清除数量
func (s *Service) ClearRoom(room string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, e := range s.entries {
		if key.Room == room {
			e.stop.Stop()
			delete(s.entries, key)
			n++
		}
	}
	return n
}

// Deadline 返回计时器截止时间
func (s *Service) Deadline(key Key) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

// Active 计时器是否在运行
func (s *Service) Active(key Key) bool {
	_, ok := s.Deadline(key)
	return ok
}

// Count 返回房间内运行中的计时器数量
func (s *Service) Count(room string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.entries {
		if key.Room == room {
			n++
		}
	}
	return n
}
