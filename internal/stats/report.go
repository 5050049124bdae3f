package stats

import (
	"math"
	"time"

	"teddy/internal/core"
)

// NoTopCategory is reported when the current period has no spending.
const NoTopCategory = "N/A"

// DashboardStats is the month-scoped overview shown on the home page.
type DashboardStats struct {
	TotalThisMonth core.Money            `json:"total_this_month"`
	ByCategory     []core.CategoryAmount `json:"by_category"`
	Trend          []TrendPoint          `json:"trend"`
	Comparison     []Comparison          `json:"comparison"`
	Insight        string                `json:"insight"`
}

// Report is the analytics view for one period.
type Report struct {
	Period           Period                `json:"period"`
	Window           Window                `json:"window"`
	CurrentTotal     core.Money            `json:"current_total"`
	PreviousTotal    core.Money            `json:"previous_total"`
	PercentChange    float64               `json:"percent_change"`
	ByCategory       []core.CategoryAmount `json:"by_category"`
	Trend            []TrendPoint          `json:"trend"`
	AvgPerDay        core.Money            `json:"avg_per_day"`
	TopCategory      string                `json:"top_category"`
	TransactionCount int                   `json:"transaction_count"`
	Comparison       []Comparison          `json:"comparison"`
	Insight          string                `json:"insight"`
}

// Summary is the all-time context handed to the advisor.
type Summary struct {
	Total            core.Money            `json:"total"`
	ThisMonth        core.Money            `json:"this_month"`
	LastMonth        core.Money            `json:"last_month"`
	TransactionCount int                   `json:"transaction_count"`
	ByCategory       []core.CategoryAmount `json:"by_category"`
}

// Dashboard computes the monthly overview. The category breakdown keeps
// first-encounter order; the trend covers the trailing thirty days of all
// transactions regardless of month.
func Dashboard(txs []core.Transaction, now time.Time) DashboardStats {
	s := MonthlyStrategy{}
	current, previous := Partition(txs, s.Window(now))
	byCategory := CategoryTotals(current)
	comparisons := TopComparisons(byCategory, CategoryTotals(previous), DashboardComparisons)

	return DashboardStats{
		TotalThisMonth: core.Sum(current),
		ByCategory:     nonNil(byCategory),
		Trend:          DailyTrend(txs, now, TrailingDays),
		Comparison:     comparisons,
		Insight:        Insight(comparisons, s),
	}
}

// Analyze computes the report for period p.
func Analyze(txs []core.Transaction, now time.Time, p Period) (Report, error) {
	s, err := StrategyFor(p)
	if err != nil {
		return Report{}, err
	}
	w := s.Window(now)
	current, previous := Partition(txs, w)
	currentTotal := core.Sum(current)
	previousTotal := core.Sum(previous)
	byCategory := CategoryTotals(current)
	comparisons := TopComparisons(byCategory, CategoryTotals(previous), DashboardComparisons)
	sorted := SortByAmount(byCategory)

	top := NoTopCategory
	if len(sorted) > 0 {
		top = string(sorted[0].Name)
	}

	return Report{
		Period:           p,
		Window:           w,
		CurrentTotal:     currentTotal,
		PreviousTotal:    previousTotal,
		PercentChange:    PercentChange(currentTotal, previousTotal),
		ByCategory:       sorted,
		Trend:            PeriodTrend(current, s, now.Location()),
		AvgPerDay:        perDay(currentTotal, s.Days()),
		TopCategory:      top,
		TransactionCount: len(current),
		Comparison:       comparisons,
		Insight:          Insight(comparisons, s),
	}, nil
}

// Summarize computes all-time and month-to-month figures.
func Summarize(txs []core.Transaction, now time.Time) Summary {
	thisMonth, lastMonth := Partition(txs, MonthlyStrategy{}.Window(now))
	return Summary{
		Total:            core.Sum(txs),
		ThisMonth:        core.Sum(thisMonth),
		LastMonth:        core.Sum(lastMonth),
		TransactionCount: len(txs),
		ByCategory:       SortByAmount(CategoryTotals(txs)),
	}
}

func perDay(total core.Money, days int) core.Money {
	return core.Money{Cents: int64(math.Round(float64(total.Cents) / float64(days)))}
}

func nonNil(in []core.CategoryAmount) []core.CategoryAmount {
	if in == nil {
		return []core.CategoryAmount{}
	}
	return in
}
