package analytics

import (
	"time"

	"github.com/mathieu-neron/channelpulse/internal/model"
)

// Day returns the calendar date of t as observed in loc, normalized to
// midnight UTC. Every snapshot date in the system uses this representation.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a normalized day by n calendar days.
func AddDays(day time.Time, n int) time.Time {
	return day.AddDate(0, 0, n)
}

// ParseDay parses a YYYY-MM-DD date into the normalized representation.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(model.DateLayout, s, time.UTC)
}

// FormatDay renders a normalized day as YYYY-MM-DD.
func FormatDay(day time.Time) string {
	return day.Format(model.DateLayout)
}

// Clock abstracts the wall clock so "today" is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// Calendar turns the wall clock into normalized days in a fixed timezone.
type Calendar struct {
	Clock Clock
	Loc   *time.Location
}

// Today is the current calendar day. A zero Calendar reads the system clock in UTC.
func (c Calendar) Today() time.Time {
	clock := c.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return Day(clock.Now(), c.Loc)
}
