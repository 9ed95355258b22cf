// Package clock provides wall-clock and manual implementations of the
// Clock and FrameScheduler ports.
package clock

import (
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// DefaultFrameInterval targets 60 frames per second.
const DefaultFrameInterval = time.Second / 60

// System is a ports.Clock backed by the time package.
type System struct{}

// NewSystem returns the wall clock.
func NewSystem() System {
	return System{}
}

// Now implements ports.Clock.
func (System) Now() time.Time {
	return time.Now()
}

// AfterFunc implements ports.Clock.
func (System) AfterFunc(d time.Duration, f func()) ports.Timer {
	return &afterTimer{t: time.AfterFunc(d, f)}
}

// Every implements ports.Clock. The callback runs on a dedicated goroutine
// that exits when the timer is stopped.
func (System) Every(d time.Duration, f func()) ports.Timer {
	t := &tickerTimer{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f()
			case <-t.done:
				return
			}
		}
	}()
	return t
}

type afterTimer struct {
	t *time.Timer
}

func (a *afterTimer) Stop() {
	a.t.Stop()
}

type tickerTimer struct {
	done chan struct{}
	once sync.Once
}

// Stop ends the ticker goroutine without waiting for it.
func (t *tickerTimer) Stop() {
	t.once.Do(func() { close(t.done) })
}

// FrameTicker is a ports.FrameScheduler that fires frames on a fixed interval.
type FrameTicker struct {
	interval time.Duration
}

// NewFrameTicker creates a scheduler; non-positive intervals use DefaultFrameInterval.
func NewFrameTicker(interval time.Duration) *FrameTicker {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameTicker{interval: interval}
}

// RequestFrame implements ports.FrameScheduler. The callback always runs on
// another goroutine, never inside RequestFrame.
func (f *FrameTicker) RequestFrame(cb func(now time.Time)) func() {
	t := time.AfterFunc(f.interval, func() { cb(time.Now()) })
	return func() { t.Stop() }
}

var (
	_ ports.Clock          = System{}
	_ ports.FrameScheduler = (*FrameTicker)(nil)
)
