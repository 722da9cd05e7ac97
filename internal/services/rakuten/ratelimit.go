package rakuten

import (
	"context"
	"sync"
	"time"
)

// Gate spaces outbound marketplace requests. The upstream enforces a
// per-credential request rate and every call in the process shares one
// credential set, so there is exactly one gate per composition root.
type Gate interface {
	// Wait blocks until the caller may start a request, or until ctx is
	// done. Callers are served one at a time.
	Wait(ctx context.Context) error
}

// IntervalGate admits at most one request start per interval, process-wide.
// The mutex is held across the wait so concurrent callers queue up behind
// it; each admitted caller pushes the shared "last request" time forward.
type IntervalGate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewIntervalGate creates a gate with the given minimum spacing.
func NewIntervalGate(interval time.Duration) *IntervalGate {
	return &IntervalGate{interval: interval, now: time.Now}
}

func (g *IntervalGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		wait := g.interval - g.now().Sub(g.last)
		if wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	g.last = g.now()
	return nil
}

// NopGate admits immediately. Tests substitute it so client behavior can be
// checked without real elapsed time.
type NopGate struct{}

func (NopGate) Wait(ctx context.Context) error { return ctx.Err() }
