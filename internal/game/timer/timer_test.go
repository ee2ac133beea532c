package timer_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/wordle-party/internal/game/timer"
	"github.com/palemoky/wordle-party/internal/testutil"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestService_StartFiresOnce(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(start)
	svc := timer.NewService(clock)
	key := timer.Key{Room: "ABCD", Kind: timer.KindSelection}

	var fired int32
	deadline := svc.Start(key, time.Minute, func() { atomic.AddInt32(&fired, 1) })
	assert.Equal(t, start.Add(time.Minute), deadline)
	assert.True(t, svc.Active(key))

	clock.Advance(59 * time.Second)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))

	clock.Advance(time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
	assert.False(t, svc.Active(key))

	clock.Advance(time.Hour)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestService_ClearIsIdempotent(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(start)
	svc := timer.NewService(clock)
	key := timer.Key{Room: "ABCD", Kind: timer.KindGame}

	assert.False(t, svc.Clear(key), "清除不存在的计时器是空操作")

	var fired int32
	svc.Start(key, time.Second, func() { atomic.AddInt32(&fired, 1) })
	assert.True(t, svc.Clear(key))
	assert.False(t, svc.Clear(key))

	clock.Advance(time.Minute)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestService_RestartReplacesPrevious(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(start)
	svc := timer.NewService(clock)
	key := timer.Key{Room: "ABCD", Kind: timer.KindGrace, Player: "p1"}

	var first, second int32
	svc.Start(key, time.Second, func() { atomic.AddInt32(&first, 1) })
	svc.Start(key, 2*time.Second, func() { atomic.AddInt32(&second, 1) })

	clock.Advance(3 * time.Second)
	assert.Equal(t, int32(0), atomic.LoadInt32(&first))
	assert.Equal(t, int32(1), atomic.LoadInt32(&second))
}

// 底层定时器已触发但回调尚未拿到锁时 Clear，回调不得执行
func TestService_ClearWinsOverFiredCallback(t *testing.T) {
	t.Parallel()

	clock := &captureClock{}
	svc := timer.NewService(clock)
	key := timer.Key{Room: "ABCD", Kind: timer.KindSelection}

	var fired int32
	svc.Start(key, time.Second, func() { atomic.AddInt32(&fired, 1) })
	assert.True(t, svc.Clear(key))

	// 模拟运行时在 Stop 之前已经调度了回调
	clock.last()
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestService_ClearRoom(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(start)
	svc := timer.NewService(clock)

	var fired int32
	inc := func() { atomic.AddInt32(&fired, 1) }
	svc.Start(timer.Key{Room: "AAAA", Kind: timer.KindSelection}, time.Second, inc)
	svc.Start(timer.Key{Room: "AAAA", Kind: timer.KindGrace, Player: "p1"}, time.Second, inc)
	svc.Start(timer.Key{Room: "BBBB", Kind: timer.KindGame}, time.Second, inc)

	assert.Equal(t, 2, svc.Count("AAAA"))
	assert.Equal(t, 2, svc.ClearRoom("AAAA"))
	assert.Equal(t, 0, svc.Count("AAAA"))
	assert.Equal(t, 0, svc.ClearRoom("AAAA"))

	clock.Advance(time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestService_RealClockConcurrentClear(t *testing.T) {
	t.Parallel()

	svc := timer.NewService(nil)
	var fired int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		key := timer.Key{Room: "RACE", Kind: timer.KindGrace, Player: fmt.Sprintf("p%d", i)}
		svc.Start(key, time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Clear(key)
			svc.Clear(key)
		}()
	}
	wg.Wait()
	time.Sleep(20 * time.Millisecond)

	// 每个 Key 最多触发一次
	assert.LessOrEqual(t, atomic.LoadInt32(&fired), int32(50))
	assert.Equal(t, 0, svc.Count("RACE"))
}

// captureClock 记录回调但从不自动触发
type captureClock struct {
	mu    sync.Mutex
	funcs []func()
}

func (c *captureClock) Now() time.Time { return start }

func (c *captureClock) AfterFunc(_ time.Duration, f func()) timer.Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs = append(c.funcs, f)
	return noopStopper{}
}

func (c *captureClock) last() {
	c.mu.Lock()
	f := c.funcs[len(c.funcs)-1]
	c.mu.Unlock()
	f()
}

type noopStopper struct{}

func (noopStopper) Stop() bool { return false }
