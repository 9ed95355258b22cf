package clock

import (
	"sort"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// Manual is a deterministic Clock and FrameScheduler for tests.
// Time only moves through Advance; frames only fire through Frame.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
	frames map[int]func(time.Time)
}

type manualTimer struct {
	clock  *Manual
	id     int
	due    time.Time
	period time.Duration
	fn     func()
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, frames: make(map[int]func(time.Time))}
}

// Now implements ports.Clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc implements ports.Clock.
func (m *Manual) AfterFunc(d time.Duration, f func()) ports.Timer {
	return m.add(d, 0, f)
}

// Every implements ports.Clock.
func (m *Manual) Every(d time.Duration, f func()) ports.Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	return m.add(d, d, f)
}

func (m *Manual) add(d, period time.Duration, f func()) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{clock: m, id: m.seq, due: m.now.Add(d), period: period, fn: f}
	m.timers = append(m.timers, t)
	return t
}

// Stop implements ports.Timer.
func (t *manualTimer) Stop() {
	m := t.clock
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

// Advance moves time forward by d, firing due timers in order.
// Callbacks run without the clock lock held.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		sort.SliceStable(m.timers, func(i, j int) bool {
			if m.timers[i].due.Equal(m.timers[j].due) {
				return m.timers[i].id < m.timers[j].id
			}
			return m.timers[i].due.Before(m.timers[j].due)
		})
		if len(m.timers) == 0 || m.timers[0].due.After(target) {
			break
		}
		t := m.timers[0]
		m.now = t.due
		if t.period > 0 {
			t.due = t.due.Add(t.period)
		} else {
			m.timers = m.timers[1:]
		}
		m.mu.Unlock()
		t.fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

// ActiveTimers returns the number of scheduled timers.
func (m *Manual) ActiveTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// RequestFrame implements ports.FrameScheduler.
func (m *Manual) RequestFrame(cb func(now time.Time)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := m.seq
	m.frames[id] = cb
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.frames, id)
	}
}

// PendingFrames returns the number of requested, not yet fired frames.
func (m *Manual) PendingFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

// Frame fires every pending frame request at the current time and returns
// how many fired. Requests made by the callbacks wait for the next call.
func (m *Manual) Frame() int {
	m.mu.Lock()
	ids := make([]int, 0, len(m.frames))
	for id := range m.frames {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	callbacks := make([]func(time.Time), 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, m.frames[id])
		delete(m.frames, id)
	}
	now := m.now
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(now)
	}
	return len(callbacks)
}

// Step advances time by d and then fires pending frames.
func (m *Manual) Step(d time.Duration) int {
	m.Advance(d)
	return m.Frame()
}

var (
	_ ports.Clock          = (*Manual)(nil)
	_ ports.FrameScheduler = (*Manual)(nil)
)
