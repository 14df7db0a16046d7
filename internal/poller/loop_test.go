package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualTicker выдает тики только по команде теста
type manualTicker struct {
	mu      sync.Mutex
	chans   []chan time.Time
	stopped int
}

func (m *manualTicker) new(time.Duration) (<-chan time.Time, func()) {
	ch := make(chan time.Time)
	m.mu.Lock()
	m.chans = append(m.chans, ch)
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		m.stopped++
		m.mu.Unlock()
	}
}

// fire отправляет тик в последний созданный источник и ждет, пока его примут
func (m *manualTicker) fire(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	ch := m.chans[len(m.chans)-1]
	m.mu.Unlock()

	select {
	case ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("тик не был принят")
	}
}

func TestArmRunsTicksUntilFalse(t *testing.T) {
	mt := &manualTicker{}
	loop := New(mt.new)

	var ticks atomic.Int32
	done := make(chan struct{})
	loop.Arm(context.Background(), time.Second, func(ctx context.Context) bool {
		n := ticks.Add(1)
		if n == 3 {
			close(done)
			return false
		}
		return true
	})

	mt.fire(t)
	mt.fire(t)
	mt.fire(t)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("цикл не завершился")
	}

	require.Eventually(t, func() bool { return !loop.Active() && loop.Running() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), ticks.Load())
}

func TestRearmLeavesExactlyOneLoop(t *testing.T) {
	mt := &manualTicker{}
	loop := New(mt.new)

	var first, second atomic.Int32
	loop.Arm(context.Background(), time.Second, func(context.Context) bool {
		first.Add(1)
		return true
	})
	assert.Equal(t, 1, loop.Running())

	loop.Arm(context.Background(), time.Second, func(context.Context) bool {
		second.Add(1)
		return true
	})

	// Предыдущий запуск остановлен до старта нового
	assert.Equal(t, 1, loop.Running())
	assert.True(t, loop.Active())

	mt.fire(t)
	mt.fire(t)

	assert.Equal(t, int32(0), first.Load())
	assert.Eventually(t, func() bool { return second.Load() == 2 }, time.Second, 5*time.Millisecond)

	loop.Stop()
	assert.False(t, loop.Active())
	assert.Equal(t, 0, loop.Running())

	mt.mu.Lock()
	assert.Equal(t, 2, mt.stopped)
	mt.mu.Unlock()
}

func TestConcurrentArmKeepsSingleRun(t *testing.T) {
	loop := New(func(time.Duration) (<-chan time.Time, func()) {
		return make(chan time.Time), func() {}
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.Arm(context.Background(), time.Millisecond, func(context.Context) bool { return true })
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, loop.Running())
	loop.Stop()
	assert.Equal(t, 0, loop.Running())
}

func TestDisposeStopsOwnRun(t *testing.T) {
	mt := &manualTicker{}
	loop := New(mt.new)

	dispose := loop.Arm(context.Background(), time.Second, func(context.Context) bool { return true })
	dispose()

	assert.False(t, loop.Active())
	assert.Equal(t, 0, loop.Running())

	// Повторный вызов не блокируется
	dispose()
	loop.Stop()
}

func TestParentContextCancelStopsLoop(t *testing.T) {
	loop := New(nil)
	ctx, cancel := context.WithCancel(context.Background())

	loop.Arm(ctx, time.Hour, func(context.Context) bool { return true })
	cancel()

	require.Eventually(t, func() bool { return loop.Running() == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, loop.Active())
}
