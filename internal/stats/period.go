// Package stats turns a transaction list into period-scoped spending figures.
//
// Every function is pure: the caller passes the list and the instant "now",
// and all calendar arithmetic happens in now.Location(). Callers must sample
// now on every call so a long-running process moves across midnight, month
// and year boundaries.
//
// Each period granularity is a strategy that knows its window bounds, how to
// bucket a timestamp for the trend chart and how to name itself in prose.
package stats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Period selects the granularity of an analytics report.
type Period string

// Window holds the bounds of the current and previous periods.
// Current is open-ended: a transaction belongs to it when its date is at or
// after CurrentStart. Previous is [PreviousStart, PreviousEnd).
type Window struct {
	CurrentStart  time.Time `json:"current_start"`
	PreviousStart time.Time `json:"previous_start"`
	PreviousEnd   time.Time `json:"previous_end"`
}

// Bucket identifies one trend point within a period.
type Bucket struct {
	Index int
	Label string
}

// PeriodStrategy is implemented once per Period.
type PeriodStrategy interface {
	Period() Period
	// Window returns the period bounds relative to now.
	Window(now time.Time) Window
	// Bucket maps a timestamp, already in the report location, to its trend bucket.
	Bucket(t time.Time) Bucket
	// Days is the divisor for the average-per-day figure.
	Days() int
	// CurrentLabel names the current period in prose ("this month").
	CurrentLabel() string
	// PreviousLabel names the previous period in prose ("last month").
	PreviousLabel() string
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DailyStrategy compares today with yesterday, bucketed by hour.
type DailyStrategy struct{}

func (DailyStrategy) Period() Period { return Daily }

func (DailyStrategy) Window(now time.Time) Window {
	start := startOfDay(now)
	return Window{CurrentStart: start, PreviousStart: start.AddDate(0, 0, -1), PreviousEnd: start}
}

func (DailyStrategy) Bucket(t time.Time) Bucket {
	return Bucket{Index: t.Hour(), Label: fmt.Sprintf("%d:00", t.Hour())}
}

func (DailyStrategy) Days() int             { return 1 }
func (DailyStrategy) CurrentLabel() string  { return "today" }
func (DailyStrategy) PreviousLabel() string { return "yesterday" }

// WeeklyStrategy compares the week starting on the most recent Sunday with
// the seven days before it, bucketed by weekday.
type WeeklyStrategy struct{}

func (WeeklyStrategy) Period() Period { return Weekly }

func (WeeklyStrategy) Window(now time.Time) Window {
	today := startOfDay(now)
	start := today.AddDate(0, 0, -int(today.Weekday()))
	return Window{CurrentStart: start, PreviousStart: start.AddDate(0, 0, -7), PreviousEnd: start}
}

func (WeeklyStrategy) Bucket(t time.Time) Bucket {
	wd := t.Weekday()
	return Bucket{Index: int(wd), Label: wd.String()[:3]}
}

func (WeeklyStrategy) Days() int             { return 7 }
func (WeeklyStrategy) CurrentLabel() string  { return "this week" }
func (WeeklyStrategy) PreviousLabel() string { return "last week" }

// MonthlyStrategy compares this calendar month with the last, bucketed by day.
type MonthlyStrategy struct{}

func (MonthlyStrategy) Period() Period { return Monthly }

func (MonthlyStrategy) Window(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{CurrentStart: start, PreviousStart: start.AddDate(0, -1, 0), PreviousEnd: start}
}

func (MonthlyStrategy) Bucket(t time.Time) Bucket {
	return Bucket{Index: t.Day(), Label: strconv.Itoa(t.Day())}
}

func (MonthlyStrategy) Days() int             { return 30 }
func (MonthlyStrategy) CurrentLabel() string  { return "this month" }
func (MonthlyStrategy) PreviousLabel() string { return "last month" }

// YearlyStrategy compares this calendar year with the last, bucketed by month.
type YearlyStrategy struct{}

func (YearlyStrategy) Period() Period { return Yearly }

func (YearlyStrategy) Window(now time.Time) Window {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return Window{CurrentStart: start, PreviousStart: start.AddDate(-1, 0, 0), PreviousEnd: start}
}

func (YearlyStrategy) Bucket(t time.Time) Bucket {
	return Bucket{Index: int(t.Month()), Label: t.Month().String()[:3]}
}

func (YearlyStrategy) Days() int             { return 365 }
func (YearlyStrategy) CurrentLabel() string  { return "this year" }
func (YearlyStrategy) PreviousLabel() string { return "last year" }

// ErrUnknownPeriod is returned for a period name outside Periods.
var ErrUnknownPeriod = errors.New("unknown period")

var strategies = map[Period]PeriodStrategy{
	Daily:   DailyStrategy{},
	Weekly:  WeeklyStrategy{},
	Monthly: MonthlyStrategy{},
	Yearly:  YearlyStrategy{},
}

// Periods lists the supported periods from finest to coarsest.
func Periods() []Period {
	return []Period{Daily, Weekly, Monthly, Yearly}
}

// StrategyFor returns the strategy for p.
func StrategyFor(p Period) (PeriodStrategy, error) {
	s, ok := strategies[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, string(p))
	}
	return s, nil
}

// ParsePeriod parses a period name; empty input selects Monthly.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Monthly, nil
	}
	p := Period(s)
	if _, ok := strategies[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
	return p, nil
}
