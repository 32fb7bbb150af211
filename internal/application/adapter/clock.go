// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import "time"

// Clock is the time source of use cases, replaced in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
