// Package timectrl provides the clocks and the frame ticker that drive the
// viewer. Transition logic reads time through Clock so it can be tested
// without real timers.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is the time source used for transition start stamps and frame times.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// WallClock reads the system clock.
type WallClock struct{}

// Now returns time.Now().
func (WallClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock returns a ManualClock set to start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// SetTime moves the clock to t, which may be earlier than the current time.
func (c *ManualClock) SetTime(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Mode describes how frame times are produced.
type Mode int

const (
	// RealTime stamps every frame with the controller's clock.
	RealTime Mode = iota
	// Stepped stamps frame n with start + n·Tick regardless of how long the
	// frame took; useful for headless runs and tests.
	Stepped
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Stepped:
		return "stepped"
	default:
		return "unknown"
	}
}

// TimeController emits display frames and notifies registered listeners with
// each frame's time, one frame at a time.
type TimeController struct {
	mu    sync.RWMutex
	Clock Clock
	Tick  time.Duration
	Mode  Mode

	// last is the time handed to listeners on the most recent frame.
	last   time.Time
	frames uint64

	listeners []func(time.Time)
}

// NewTimeController constructs a controller. A nil clock means WallClock.
func NewTimeController(clock Clock, tick time.Duration, mode Mode) *TimeController {
	if clock == nil {
		clock = WallClock{}
	}
	if tick <= 0 {
		tick = time.Second / 60
	}
	return &TimeController{
		Clock: clock,
		Tick:  tick,
		Mode:  mode,
		last:  clock.Now(),
	}
}

// Now returns the time of the most recent frame.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.last
}

// Frames returns how many frames have been emitted.
func (tc *TimeController) Frames() uint64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.frames
}

// AddListener registers a callback invoked on every frame.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

// Step emits a single frame synchronously.
func (tc *TimeController) Step() time.Time {
	tc.mu.Lock()
	var now time.Time
	if tc.Mode == Stepped {
		now = tc.last.Add(tc.Tick)
	} else {
		now = tc.Clock.Now()
	}
	tc.last = now
	tc.frames++
	listeners := append([]func(time.Time){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(now)
	}
	return now
}

// Run emits frames every Tick until ctx is cancelled.
func (tc *TimeController) Run(ctx context.Context) {
	ticker := time.NewTicker(tc.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tc.Step()
		}
	}
}

// Start runs the controller for the specified duration in a separate goroutine.
// A non-positive duration runs until ctx is cancelled. The returned channel is
// closed when the controller finishes.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		go func() {
			<-done
			cancel()
		}()
	}
	go func() {
		defer close(done)
		tc.Run(ctx)
	}()
	return done
}
