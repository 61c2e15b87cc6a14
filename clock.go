// FILE: lixenwraith/logfile/clock.go
package logfile

import (
	"time"

	timecache "github.com/agilira/go-timecache"
)

// Clock supplies the current time for record timestamps and rotation decisions.
type Clock interface {
	Now() time.Time
}

// cachedClock reads a millisecond-resolution cached clock to keep time.Now off the hot path
type cachedClock struct {
	tc *timecache.TimeCache
}

func newCachedClock() *cachedClock {
	return &cachedClock{tc: timecache.NewWithResolution(time.Millisecond)}
}

func (c *cachedClock) Now() time.Time {
	return c.tc.CachedTime()
}

func (c *cachedClock) stop() {
	c.tc.Stop()
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// dateOf truncates t to its local calendar day
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// sameDay reports whether a and b fall on the same calendar day in a's location
func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
