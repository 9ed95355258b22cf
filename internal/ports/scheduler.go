package ports

import "time"

// FrameScheduler schedules render callbacks, the equivalent of
// requestAnimationFrame. Each request fires at most once.
type FrameScheduler interface {
	// RequestFrame schedules cb for the next frame and returns a cancel function.
	// Cancel is idempotent and safe to call after the callback ran.
	RequestFrame(cb func(now time.Time)) (cancel func())
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents future firings. It is idempotent.
	Stop()
}

// Clock provides time and timers so time-dependent components can be tested.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f once after d.
	AfterFunc(d time.Duration, f func()) Timer

	// Every calls f repeatedly with period d until stopped.
	Every(d time.Duration, f func()) Timer
}
