// Package clock abstracts the time source used for all staleness
// computations. time.Now carries a monotonic reading, so ages computed
// with Sub are immune to wall-clock steps.
package clock

import "time"

// Clock supplies the current instant. Backed by the system clock in
// production and by synthetic instants in tests.
type Clock interface {
	Now() time.Time
}

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
