// Package clock abstracts wall-clock time.
package clock

import "time"

// Clock abstracts time to keep tracking and date math deterministic in tests.
type Clock interface {
	Now() time.Time
}

// System reads the local wall clock.
type System struct{}

// Now implements Clock.
func (System) Now() time.Time {
	return time.Now()
}
