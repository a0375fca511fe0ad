// Package analytics holds the pure parts of the snapshot-and-delta model:
// lookback periods, calendar-day arithmetic, per-channel and aggregate deltas,
// ranking, chart shaping and compact number formatting. Nothing here touches
// the store; the service layer feeds it snapshots and rollup buckets.
package analytics

import (
	"fmt"
	"time"

	"github.com/mathieu-neron/channelpulse/internal/apperr"
)

// Period is a named lookback window.
type Period string

const (
	Period1D  Period = "1d"
	Period7D  Period = "7d"
	Period30D Period = "30d"
	Period90D Period = "90d"
	Period1Y  Period = "1y"
	PeriodAll Period = "all"
)

var periodDays = map[Period]int{
	Period1D:  1,
	Period7D:  7,
	Period30D: 30,
	Period90D: 90,
	Period1Y:  365,
}

// Periods lists every accepted period, shortest first.
var Periods = []Period{Period1D, Period7D, Period30D, Period90D, Period1Y, PeriodAll}

// DashboardPeriods are the deltas every dashboard row carries regardless of
// the requested chart period.
var DashboardPeriods = []Period{Period1D, Period7D, Period30D}

// ParsePeriod validates s. An empty s yields def.
func ParsePeriod(s string, def Period) (Period, error) {
	if s == "" {
		return def, nil
	}
	p := Period(s)
	if p == PeriodAll {
		return p, nil
	}
	if _, ok := periodDays[p]; !ok {
		return "", fmt.Errorf("period %q: %w", s, apperr.ErrInvalidInput)
	}
	return p, nil
}

// Days returns the window length; ok is false for PeriodAll.
func (p Period) Days() (days int, ok bool) {
	days, ok = periodDays[p]
	return days, ok
}

// Since returns the inclusive lower bound of the window ending on today, or
// nil when the period is unbounded.
func (p Period) Since(today time.Time) *time.Time {
	days, ok := p.Days()
	if !ok {
		return nil
	}
	since := AddDays(today, -days)
	return &since
}

func (p Period) String() string { return string(p) }
