package finance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// PeriodUnit is the unit of a relative lookback.
type PeriodUnit string

const (
	UnitDay   PeriodUnit = "d"
	UnitMonth PeriodUnit = "mo"
	UnitYear  PeriodUnit = "y"
)

const (
	MinDashboardYears = 1
	MaxDashboardYears = 7
)

var rePeriod = regexp.MustCompile(`^(\d+)(d|mo|y)$`)

// Period is a relative lookback such as 7d, 5mo or 1y.
type Period struct {
	Count int
	Unit  PeriodUnit
}

// ParsePeriod parses "{integer}{d|mo|y}". The count must be positive.
func ParsePeriod(s string) (Period, error) {
	g := rePeriod.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if g == nil {
		return Period{}, fmt.Errorf("invalid period %q (use e.g. 7d, 5mo, 1y)", s)
	}
	n, err := strconv.Atoi(g[1])
	if err != nil || n <= 0 {
		return Period{}, fmt.Errorf("invalid period %q: count must be a positive integer", s)
	}
	return Period{Count: n, Unit: PeriodUnit(g[2])}, nil
}

// Years builds the dashboard variant's lookback, bounded to [1,7] years.
func Years(n int) (Period, error) {
	if n < MinDashboardYears || n > MaxDashboardYears {
		return Period{}, fmt.Errorf("years must be between %d and %d, got %d", MinDashboardYears, MaxDashboardYears, n)
	}
	return Period{Count: n, Unit: UnitYear}, nil
}

func (p Period) String() string {
	return strconv.Itoa(p.Count) + string(p.Unit)
}

// Valid reports whether p describes a positive duration.
func (p Period) Valid() bool {
	if p.Count <= 0 {
		return false
	}
	switch p.Unit {
	case UnitDay, UnitMonth, UnitYear:
		return true
	}
	return false
}

// Start returns the beginning of the lookback ending at end.
func (p Period) Start(end time.Time) time.Time {
	switch p.Unit {
	case UnitDay:
		return end.AddDate(0, 0, -p.Count)
	case UnitMonth:
		return end.AddDate(0, -p.Count, 0)
	default:
		return end.AddDate(-p.Count, 0, 0)
	}
}

// Window is the absolute time range requested from a Source.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowFor resolves p against the given end time.
func WindowFor(p Period, end time.Time) Window {
	return Window{Start: p.Start(end), End: end}
}
