package hooks

import "time"

// Clock abstracts time so evaluation timing is testable.
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// Since returns the duration since t
	Since(t time.Time) time.Duration
}

// realClock implements Clock using the standard time package
type realClock struct{}

// NewRealClock creates a Clock backed by the standard time package.
func NewRealClock() Clock {
	return &realClock{}
}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func (c *realClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}
