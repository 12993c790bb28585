package bridge

import (
	"sync"
	"sync/atomic"
	"time"
)

// Loop calls a function at a fixed interval on one dedicated goroutine.
// Ticks that arrive while the function is still running are dropped rather
// than queued, so calls never overlap and a slow frame is not made up for
// with catch-up calls.
type Loop struct {
	run      func()
	interval atomic.Int64

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewLoop creates a stopped loop that calls run on every tick.
func NewLoop(run func()) *Loop {
	return &Loop{run: run}
}

// FrameInterval returns the tick interval for a frame rate, or 0 if the
// rate is not positive.
func FrameInterval(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

// Start begins ticking at interval. It returns false without doing anything
// if the loop is already running or interval is not positive.
func (l *Loop) Start(interval time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil || interval <= 0 {
		return false
	}
	l.interval.Store(int64(interval))
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.loop(l.stop, l.done, interval)
	return true
}

// Stop cancels future ticks and waits for the goroutine to exit. A call to
// run that is already in progress is allowed to finish. Stop must not be
// called from inside run.
func (l *Loop) Stop() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the loop is ticking.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stop != nil
}

// SetInterval changes the tick interval. A running loop picks it up after
// its next tick.
func (l *Loop) SetInterval(interval time.Duration) {
	if interval > 0 {
		l.interval.Store(int64(interval))
	}
}

// Interval returns the current tick interval.
func (l *Loop) Interval() time.Duration {
	return time.Duration(l.interval.Load())
}

func (l *Loop) loop(stop, done chan struct{}, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		// A stop that raced with the tick wins
		select {
		case <-stop:
			return
		default:
		}

		l.run()

		if next := time.Duration(l.interval.Load()); next != interval {
			interval = next
			ticker.Reset(interval)
		}
	}
}
