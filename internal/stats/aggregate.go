package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"teddy/internal/core"
)

// DashboardComparisons is how many categories the dashboard compares.
const DashboardComparisons = 3

// TrailingDays is the length of the dashboard's daily trend.
const TrailingDays = 30

// Comparison pairs a category's spend in the current and previous periods.
type Comparison struct {
	Category core.Category `json:"category"`
	Current  core.Money    `json:"current"`
	Previous core.Money    `json:"previous"`
	Change   float64       `json:"change"`
}

// TrendPoint is one labelled amount in a trend series.
type TrendPoint struct {
	Label  string     `json:"label"`
	Amount core.Money `json:"amount"`
}

// Partition splits txs into the current and previous period of w.
// Transactions outside both are dropped; input order is preserved.
func Partition(txs []core.Transaction, w Window) (current, previous []core.Transaction) {
	for _, tx := range txs {
		switch {
		case !tx.Date.Before(w.CurrentStart):
			current = append(current, tx)
		case !tx.Date.Before(w.PreviousStart) && tx.Date.Before(w.PreviousEnd):
			previous = append(previous, tx)
		}
	}
	return current, previous
}

// CategoryTotals sums amounts per category in first-encounter order.
// Categories without transactions are absent.
func CategoryTotals(txs []core.Transaction) []core.CategoryAmount {
	index := make(map[core.Category]int)
	var out []core.CategoryAmount
	for _, tx := range txs {
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryAmount{Name: tx.Category})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	return out
}

// SortByAmount returns a copy of totals ordered by amount descending.
// Ties keep their input order.
func SortByAmount(totals []core.CategoryAmount) []core.CategoryAmount {
	out := make([]core.CategoryAmount, len(totals))
	copy(out, totals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// PercentChange is the period-over-period change of a total.
// A previous total of zero or less yields 0.
func PercentChange(current, previous core.Money) float64 {
	if previous.Cents <= 0 {
		return 0
	}
	return float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
}

// CategoryChange is the period-over-period change of a single category.
// A category with no previous spend reports 100 to flag new spending.
func CategoryChange(current, previous core.Money) float64 {
	if previous.Cents == 0 {
		return 100
	}
	return float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
}

// TopComparisons returns up to n current categories by current total
// descending, each paired with its previous total.
func TopComparisons(current, previous []core.CategoryAmount, n int) []Comparison {
	prev := make(map[core.Category]core.Money, len(previous))
	for _, ca := range previous {
		prev[ca.Name] = ca.Amount
	}
	sorted := SortByAmount(current)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]Comparison, 0, len(sorted))
	for _, ca := range sorted {
		p := prev[ca.Name]
		out = append(out, Comparison{
			Category: ca.Name,
			Current:  ca.Amount,
			Previous: p,
			Change:   CategoryChange(ca.Amount, p),
		})
	}
	return out
}

// DailyTrend returns one point per calendar day for the days ending today,
// oldest first, zero-filled. Every transaction in txs is considered; dates
// outside the window simply do not match.
func DailyTrend(txs []core.Transaction, now time.Time, days int) []TrendPoint {
	if days <= 0 {
		return []TrendPoint{}
	}
	loc := now.Location()
	today := startOfDay(now)

	points := make([]TrendPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		key := today.AddDate(0, 0, i-(days-1)).Format(time.DateOnly)
		points[i].Label = key
		index[key] = i
	}
	for _, tx := range txs {
		if i, ok := index[tx.Date.In(loc).Format(time.DateOnly)]; ok {
			points[i].Amount = points[i].Amount.Add(tx.Amount)
		}
	}
	return points
}

// PeriodTrend buckets current-period transactions with the strategy.
// Only buckets that received a transaction appear, in calendar order.
func PeriodTrend(current []core.Transaction, s PeriodStrategy, loc *time.Location) []TrendPoint {
	type bucketTotal struct {
		Bucket
		amount core.Money
	}
	byIndex := make(map[int]*bucketTotal)
	for _, tx := range current {
		b := s.Bucket(tx.Date.In(loc))
		bt, ok := byIndex[b.Index]
		if !ok {
			bt = &bucketTotal{Bucket: b}
			byIndex[b.Index] = bt
		}
		bt.amount = bt.amount.Add(tx.Amount)
	}
	ordered := make([]*bucketTotal, 0, len(byIndex))
	for _, bt := range byIndex {
		ordered = append(ordered, bt)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	out := make([]TrendPoint, len(ordered))
	for i, bt := range ordered {
		out[i] = TrendPoint{Label: bt.Label, Amount: bt.amount}
	}
	return out
}

// SignificantChange is the absolute percentage above which the insight
// calls out the top category.
const SignificantChange = 20.0

// Insight summarises the top comparison in one sentence. Only the first
// comparison (largest current total) is considered.
func Insight(comparisons []Comparison, s PeriodStrategy) string {
	if len(comparisons) > 0 {
		top := comparisons[0]
		if math.Abs(top.Change) > SignificantChange {
			direction := "up"
			if top.Change < 0 {
				direction = "down"
			}
			return fmt.Sprintf("%s is %s %.0f%% vs %s.", top.Category, direction, math.Round(math.Abs(top.Change)), s.PreviousLabel())
		}
	}
	return fmt.Sprintf("No significant changes %s.", s.CurrentLabel())
}
