package identity

import "time"

// SetClock pins the provider clock for tests.
func SetClock(p Provider, now func() time.Time) {
	p.(*service).now = now
}
