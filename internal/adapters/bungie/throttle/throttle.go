// Package throttle keeps outbound upstream traffic inside the request budget
// enforced by the game-data service.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/vigilance/vanguard/pkg/metrics"
)

// Modes accepted by New.
const (
	ModeWindow      = "window"
	ModeTokenBucket = "token_bucket"
)

// Limiter blocks until one more request may be issued.
type Limiter interface {
	// Acquire waits for a request slot. It returns early with ctx's error
	// when ctx is done first.
	Acquire(ctx context.Context) error
}

// Clock abstracts time so tests can drive the window deterministically.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// State is a snapshot of the fixed-window counters.
type State struct {
	RequestsInWindow int
	WindowStart      time.Time
	Waits            int64
	Acquired         int64
}

// Option configures a Window limiter.
type Option func(*Window)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(w *Window) {
		if c != nil {
			w.clock = c
		}
	}
}

// Window allows at most limit requests per window. A caller arriving when the
// current window is full waits for the remainder of it, after which the
// window restarts with that caller as its first request.
type Window struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	clock  Clock

	count int
	start time.Time

	waits    atomic.Int64
	acquired atomic.Int64
}

// NewWindow creates a fixed-window limiter.
func NewWindow(limit int, window time.Duration, opts ...Option) *Window {
	w := &Window{
		limit:  limit,
		window: window,
		clock:  realClock{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.limit < 1 {
		w.limit = 1
	}
	return w
}

// Acquire implements Limiter.
func (w *Window) Acquire(ctx context.Context) error {
	w.mu.Lock()
	now := w.clock.Now()
	if w.start.IsZero() || now.Sub(w.start) >= w.window {
		w.start = now
		w.count = 0
	}
	if w.count >= w.limit {
		w.start = w.start.Add(w.window)
		w.count = 0
	}
	w.count++
	slot := w.start
	wait := slot.Sub(now)
	w.mu.Unlock()

	w.acquired.Add(1)
	if wait <= 0 {
		return nil
	}

	w.waits.Add(1)
	metrics.RecordThrottleWait(float64(wait.Milliseconds()))
	select {
	case <-w.clock.After(wait):
		return nil
	case <-ctx.Done():
		w.release(slot)
		return fmt.Errorf("throttle wait: %w", ctx.Err())
	}
}

// release gives back a slot reserved in the window starting at slot. Nothing
// is returned once that window has been replaced.
func (w *Window) release(slot time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.acquired.Add(-1)
	if w.start.Equal(slot) && w.count > 0 {
		w.count--
	}
}

// State returns a snapshot of the window counters.
func (w *Window) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		RequestsInWindow: w.count,
		WindowStart:      w.start,
		Waits:            w.waits.Load(),
		Acquired:         w.acquired.Load(),
	}
}

// TokenBucket spreads the same budget evenly using x/time/rate: tokens refill
// at limit/window and the bucket holds at most limit tokens.
type TokenBucket struct {
	lim   *rate.Limiter
	waits atomic.Int64
}

// NewTokenBucket creates a token-bucket limiter for limit requests per window.
func NewTokenBucket(limit int, window time.Duration) *TokenBucket {
	if limit < 1 {
		limit = 1
	}
	every := window / time.Duration(limit)
	return &TokenBucket{lim: rate.NewLimiter(rate.Every(every), limit)}
}

// Acquire implements Limiter.
func (b *TokenBucket) Acquire(ctx context.Context) error {
	r := b.lim.Reserve()
	if !r.OK() {
		return fmt.Errorf("throttle: reservation exceeds burst")
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	b.waits.Add(1)
	metrics.RecordThrottleWait(float64(delay.Milliseconds()))
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return fmt.Errorf("throttle wait: %w", ctx.Err())
	}
}

// Waits reports how many acquisitions had to block.
func (b *TokenBucket) Waits() int64 {
	return b.waits.Load()
}

// New builds the limiter selected by mode.
func New(mode string, limit int, window time.Duration) (Limiter, error) {
	switch mode {
	case "", ModeWindow:
		return NewWindow(limit, window), nil
	case ModeTokenBucket:
		return NewTokenBucket(limit, window), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
