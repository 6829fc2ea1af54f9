package estimate

import (
	"sync"
	"time"
)

const DefaultDebounceDelay = time.Second

// Scheduler runs fn once after d and returns a function that cancels it.
// time.AfterFunc is the production implementation; tests substitute a manual one.
type Scheduler func(d time.Duration, fn func()) (cancel func() bool)

func afterFuncScheduler(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

type TrackerOption func(*DistanceTracker)

func WithScheduler(s Scheduler) TrackerOption {
	return func(t *DistanceTracker) {
		t.schedule = s
	}
}

// DistanceTracker owns the distance factor of one form session. A postal code
// change cancels the pending recomputation and schedules a new one after the
// delay; callbacks from superseded generations are dropped, so only the latest
// postal code can ever set the factor.
type DistanceTracker struct {
	mu          sync.Mutex
	delay       time.Duration
	schedule    Scheduler
	postalCode  string
	factor      float64
	calculating bool
	generation  uint64
	cancel      func() bool
}

func NewDistanceTracker(delay time.Duration, opts ...TrackerOption) *DistanceTracker {
	t := &DistanceTracker{
		delay:    delay,
		schedule: afterFuncScheduler,
		factor:   1.0,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetPostalCode records the latest postal code. Setting the same value again
// is a no-op; clearing it resets the factor to 1.0.
func (t *DistanceTracker) SetPostalCode(postalCode string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if postalCode == t.postalCode {
		return
	}
	t.postalCode = postalCode
	t.cancelPendingLocked()

	if postalCode == "" {
		t.factor = 1.0
		return
	}

	gen := t.generation
	t.calculating = true
	t.cancel = t.schedule(t.delay, func() {
		t.apply(gen, postalCode)
	})
}

func (t *DistanceTracker) apply(gen uint64, postalCode string) {
	factor := ComputeDistanceFactor(postalCode)

	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		return
	}
	t.factor = factor
	t.calculating = false
	t.cancel = nil
}

// Factor returns the current factor and whether a recomputation is pending.
func (t *DistanceTracker) Factor() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.factor, t.calculating
}

// Stop cancels any pending recomputation.
func (t *DistanceTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelPendingLocked()
}

func (t *DistanceTracker) cancelPendingLocked() {
	t.generation++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.calculating = false
}
