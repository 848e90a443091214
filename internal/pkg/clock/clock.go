// Package clock normalizes timestamps to UTC and computes delays until a due time.
package clock

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the time source used by the scheduler. Tests pass a fake clock.
type Clock = clockwork.Clock

// Real returns the wall clock.
func Real() Clock {
	return clockwork.NewRealClock()
}

// layouts accepted by Parse. Layouts without an offset are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Normalize converts t to UTC, drops the monotonic reading and truncates to
// microseconds so stored and compared values agree.
func Normalize(t time.Time) time.Time {
	return t.Round(0).UTC().Truncate(time.Microsecond)
}

// Parse reads an ISO-8601 timestamp. Input carrying an offset is converted to
// UTC; input without one is taken to be UTC already.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Now returns the normalized current time of c.
func Now(c Clock) time.Time {
	return Normalize(c.Now())
}

// Until returns max(0, due-now).
func Until(c Clock, due time.Time) time.Duration {
	d := Normalize(due).Sub(Now(c))
	if d < 0 {
		return 0
	}
	return d
}

// SecondsUntil is Until expressed in seconds.
func SecondsUntil(c Clock, due time.Time) float64 {
	return Until(c, due).Seconds()
}
