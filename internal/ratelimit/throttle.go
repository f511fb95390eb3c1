package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Throttle spaces requests so the next one starts no sooner than interval after the
// previous one finished.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
}

// NewThrottle allows rate requests per second. A non-positive rate disables throttling.
func NewThrottle(rate float64) *Throttle {
	var interval time.Duration
	if rate > 0 {
		interval = time.Duration(float64(time.Second) / rate)
	}
	return &Throttle{
		interval: interval,
		now:      time.Now,
		sleep:    Sleep,
	}
}

func (t *Throttle) Interval() time.Duration { return t.interval }

// Wait blocks until the interval since the last Mark has passed.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.interval <= 0 || t.last.IsZero() {
		return nil
	}
	elapsed := t.now().Sub(t.last)
	if elapsed >= t.interval {
		return nil
	}
	return t.sleep(ctx, t.interval-elapsed)
}

// Mark records the end of a request.
func (t *Throttle) Mark() {
	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
