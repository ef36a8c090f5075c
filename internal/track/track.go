// Package track implements last-success trackers. A tracker stores only
// the instant of the most recent positive confirmation (address acquired,
// metrics scraped); staleness is purely a function of time since that
// instant, so transient failures never need explicit negative marking —
// a later success naturally resets the age.
package track

import (
	"sync"
	"time"
)

// Tracker records the most recent positive event. One writer, many readers.
type Tracker struct {
	mu     sync.Mutex
	last   time.Time
	marked bool
}

// New creates a tracker with no recorded success (infinite age).
func New() *Tracker {
	return &Tracker{}
}

// Mark records a positive confirmation at ts.
func (t *Tracker) Mark(ts time.Time) {
	t.mu.Lock()
	t.last = ts
	t.marked = true
	t.mu.Unlock()
}

// Age returns the elapsed time since the last confirmation. The second
// return is false when no confirmation has ever been recorded, which
// callers must treat as infinite age.
func (t *Tracker) Age(now time.Time) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.marked {
		return 0, false
	}
	return now.Sub(t.last), true
}

// Last returns the instant of the most recent confirmation, if any.
func (t *Tracker) Last() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.marked
}
