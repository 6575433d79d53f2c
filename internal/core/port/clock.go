package port

import "time"

// Clock abstracts the current time so lockout and token expiry logic can
// be driven by a fake in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
