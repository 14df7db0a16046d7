package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TickerFunc создает источник тиков с заданным периодом и функцию его остановки
type TickerFunc func(period time.Duration) (<-chan time.Time, func())

// RealTicker - источник тиков на основе time.Ticker
func RealTicker(period time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(period)
	return t.C, t.Stop
}

// TickFunc вызывается на каждом тике. Возврат false завершает цикл.
// TickFunc не должна вызывать Arm или Stop своего же Loop
type TickFunc func(ctx context.Context) bool

// run - один запущенный цикл
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Loop - отменяемый повторяющийся таймер, у которого одновременно живет не более одного запуска
type Loop struct {
	ticker TickerFunc

	armMu sync.Mutex
	mu    sync.Mutex
	cur   *run

	running atomic.Int32
}

// New создает Loop. nil ticker означает RealTicker
func New(ticker TickerFunc) *Loop {
	if ticker == nil {
		ticker = RealTicker
	}
	return &Loop{ticker: ticker}
}

// Arm останавливает предыдущий запуск, дожидается его завершения и запускает новый.
// Возвращает функцию освобождения, которая останавливает именно этот запуск
func (l *Loop) Arm(ctx context.Context, period time.Duration, tick TickFunc) (dispose func()) {
	l.armMu.Lock()
	defer l.armMu.Unlock()

	l.stopCurrent()

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}

	l.mu.Lock()
	l.cur = r
	l.mu.Unlock()

	ch, stopTicker := l.ticker(period)
	l.running.Add(1)

	go func() {
		defer func() {
			stopTicker()
			cancel()
			l.mu.Lock()
			if l.cur == r {
				l.cur = nil
			}
			l.mu.Unlock()
			l.running.Add(-1)
			close(r.done)
		}()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ch:
				if runCtx.Err() != nil {
					return
				}
				if !tick(runCtx) {
					return
				}
			}
		}
	}()

	return func() {
		r.cancel()
		<-r.done
	}
}

// Stop останавливает текущий запуск и дожидается его завершения
func (l *Loop) Stop() {
	l.armMu.Lock()
	defer l.armMu.Unlock()
	l.stopCurrent()
}

func (l *Loop) stopCurrent() {
	l.mu.Lock()
	r := l.cur
	l.mu.Unlock()

	if r == nil {
		return
	}
	r.cancel()
	<-r.done
}

// Active сообщает, есть ли запуск, который еще не завершился
func (l *Loop) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cur != nil
}

// Running возвращает число живых горутин цикла (0 или 1)
func (l *Loop) Running() int {
	return int(l.running.Load())
}
