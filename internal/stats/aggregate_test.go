package stats

import (
	"math"
	"reflect"
	"testing"
	"time"

	"teddy/internal/core"
)

func tx(id string, amount float64, c core.Category, date time.Time) core.Transaction {
	return core.Transaction{ID: id, Amount: core.NewMoney(amount), Category: c, Date: date}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestPartitionBoundaries(t *testing.T) {
	w := MonthlyStrategy{}.Window(time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC))
	start := w.CurrentStart

	txs := []core.Transaction{
		tx("at-start", 1, core.Other, start),
		tx("just-before", 2, core.Other, start.Add(-time.Nanosecond)),
		tx("previous-start", 3, core.Other, w.PreviousStart),
		tx("too-old", 4, core.Other, w.PreviousStart.Add(-time.Second)),
		tx("future", 5, core.Other, start.AddDate(1, 0, 0)),
	}
	current, previous := Partition(txs, w)

	ids := func(list []core.Transaction) []string {
		out := []string{}
		for _, x := range list {
			out = append(out, x.ID)
		}
		return out
	}
	if got := ids(current); !reflect.DeepEqual(got, []string{"at-start", "future"}) {
		t.Fatalf("current = %v", got)
	}
	if got := ids(previous); !reflect.DeepEqual(got, []string{"just-before", "previous-start"}) {
		t.Fatalf("previous = %v", got)
	}
}

func TestCategoryTotalsFirstEncounterOrder(t *testing.T) {
	d := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("1", 10, core.Shopping, d),
		tx("2", 5, core.FoodAndDining, d),
		tx("3", 20, core.Shopping, d),
		tx("4", 0.1, core.Health, d),
		tx("5", 0.2, core.Health, d),
	}
	got := CategoryTotals(txs)
	want := []core.CategoryAmount{
		{Name: core.Shopping, Amount: core.Money{Cents: 3000}},
		{Name: core.FoodAndDining, Amount: core.Money{Cents: 500}},
		{Name: core.Health, Amount: core.Money{Cents: 30}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CategoryTotals() = %+v, want %+v", got, want)
	}

	var sum core.Money
	for _, ca := range got {
		sum = sum.Add(ca.Amount)
	}
	if sum != core.Sum(txs) {
		t.Fatalf("category sums %v != total %v", sum, core.Sum(txs))
	}

	sorted := SortByAmount(got)
	if sorted[0].Name != core.Shopping || sorted[2].Name != core.Health {
		t.Fatalf("SortByAmount() = %+v", sorted)
	}
	if got[0].Name != core.Shopping || got[1].Name != core.FoodAndDining {
		t.Fatalf("SortByAmount must not reorder its input")
	}
}

func TestSortByAmountStableTies(t *testing.T) {
	in := []core.CategoryAmount{
		{Name: core.Utilities, Amount: core.Money{Cents: 100}},
		{Name: core.Health, Amount: core.Money{Cents: 200}},
		{Name: core.Other, Amount: core.Money{Cents: 100}},
	}
	got := SortByAmount(in)
	if got[0].Name != core.Health || got[1].Name != core.Utilities || got[2].Name != core.Other {
		t.Fatalf("ties must keep input order, got %+v", got)
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		cur      float64
		prev     float64
		total    float64
		category float64
	}{
		{"growth", 50, 30, 66.67, 66.67},
		{"drop", 60, 90, -33.33, -33.33},
		{"no previous", 80, 0, 0, 100},
		{"nothing at all", 0, 0, 0, 100},
		{"unchanged", 40, 40, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur, prev := core.NewMoney(tt.cur), core.NewMoney(tt.prev)
			if got := PercentChange(cur, prev); !approx(got, tt.total) {
				t.Errorf("PercentChange() = %v, want %v", got, tt.total)
			}
			if got := CategoryChange(cur, prev); !approx(got, tt.category) {
				t.Errorf("CategoryChange() = %v, want %v", got, tt.category)
			}
		})
	}

	if got := PercentChange(core.NewMoney(10), core.NewMoney(-5)); got != 0 {
		t.Errorf("negative previous total should yield 0, got %v", got)
	}
}

func TestTopComparisons(t *testing.T) {
	current := []core.CategoryAmount{
		{Name: core.Other, Amount: core.NewMoney(10)},
		{Name: core.FoodAndDining, Amount: core.NewMoney(100)},
		{Name: core.Health, Amount: core.NewMoney(60)},
		{Name: core.Shopping, Amount: core.NewMoney(80)},
	}
	previous := []core.CategoryAmount{
		{Name: core.FoodAndDining, Amount: core.NewMoney(50)},
		{Name: core.Health, Amount: core.NewMoney(90)},
		{Name: core.Transportation, Amount: core.NewMoney(500)},
	}

	got := TopComparisons(current, previous, DashboardComparisons)
	if len(got) != 3 {
		t.Fatalf("expected 3 comparisons, got %d", len(got))
	}
	want := []struct {
		cat    core.Category
		prev   float64
		change float64
	}{
		{core.FoodAndDining, 50, 100},
		{core.Shopping, 0, 100},
		{core.Health, 90, -33.33},
	}
	for i, w := range want {
		if got[i].Category != w.cat || got[i].Previous != core.NewMoney(w.prev) || !approx(got[i].Change, w.change) {
			t.Errorf("comparison %d = %+v, want %v/%v/%v", i, got[i], w.cat, w.prev, w.change)
		}
	}

	if got := TopComparisons(nil, previous, 3); len(got) != 0 {
		t.Fatalf("no current categories should yield no comparisons, got %+v", got)
	}
}

func TestDailyTrend(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("today", 5, core.Other, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)),
		tx("today-2", 2.5, core.Health, time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)),
		tx("oldest", 7, core.Other, time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)),
		tx("out", 9, core.Other, time.Date(2025, 2, 8, 23, 59, 0, 0, time.UTC)),
	}

	got := DailyTrend(txs, now, TrailingDays)
	if len(got) != TrailingDays {
		t.Fatalf("expected %d points, got %d", TrailingDays, len(got))
	}
	if got[0].Label != "2025-02-09" || got[29].Label != "2025-03-10" {
		t.Fatalf("window = %s..%s", got[0].Label, got[29].Label)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Label >= got[i].Label {
			t.Fatalf("labels not ascending at %d: %s, %s", i, got[i-1].Label, got[i].Label)
		}
	}
	if got[29].Amount.Cents != 750 {
		t.Fatalf("today = %v, want 7.50", got[29].Amount)
	}
	if got[0].Amount.Cents != 700 {
		t.Fatalf("oldest day = %v, want 7", got[0].Amount)
	}
	var total int64
	for _, p := range got {
		total += p.Amount.Cents
	}
	if total != 1450 {
		t.Fatalf("trend total = %d, the out-of-window transaction leaked", total)
	}

	empty := DailyTrend(nil, now, TrailingDays)
	if len(empty) != TrailingDays {
		t.Fatalf("empty input must still yield %d points", TrailingDays)
	}
	for _, p := range empty {
		if !p.Amount.IsZero() {
			t.Fatalf("expected zero-filled trend, got %+v", p)
		}
	}
}

func TestDailyTrendUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, loc)
	// 02:00 UTC on the 10th is still the 9th in UTC-5.
	txs := []core.Transaction{tx("late", 4, core.Other, time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC))}
	got := DailyTrend(txs, now, 2)
	if got[0].Label != "2025-03-09" || got[0].Amount.Cents != 400 || !got[1].Amount.IsZero() {
		t.Fatalf("DailyTrend() = %+v", got)
	}
}

func TestPeriodTrendSparseAndOrdered(t *testing.T) {
	sat := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	sun := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	wed := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("1", 3, core.Other, sat),
		tx("2", 1, core.Other, wed),
		tx("3", 2, core.Other, sun),
		tx("4", 4, core.Other, wed.Add(time.Hour)),
	}
	got := PeriodTrend(txs, WeeklyStrategy{}, time.UTC)
	want := []TrendPoint{
		{Label: "Sun", Amount: core.NewMoney(2)},
		{Label: "Wed", Amount: core.NewMoney(5)},
		{Label: "Sat", Amount: core.NewMoney(3)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PeriodTrend() = %+v, want %+v", got, want)
	}

	yearly := PeriodTrend([]core.Transaction{
		tx("dec", 1, core.Other, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)),
		tx("feb", 1, core.Other, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
	}, YearlyStrategy{}, time.UTC)
	if len(yearly) != 2 || yearly[0].Label != "Feb" || yearly[1].Label != "Dec" {
		t.Fatalf("yearly trend = %+v", yearly)
	}

	monthly := PeriodTrend([]core.Transaction{
		tx("10", 1, core.Other, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
		tx("2", 1, core.Other, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)),
	}, MonthlyStrategy{}, time.UTC)
	if monthly[0].Label != "2" || monthly[1].Label != "10" {
		t.Fatalf("days must sort numerically, got %+v", monthly)
	}

	if got := PeriodTrend(nil, DailyStrategy{}, time.UTC); len(got) != 0 {
		t.Fatalf("expected empty trend, got %+v", got)
	}
}

func TestInsight(t *testing.T) {
	tests := []struct {
		name   string
		comps  []Comparison
		s      PeriodStrategy
		expect string
	}{
		{"empty", nil, MonthlyStrategy{}, "No significant changes this month."},
		{"rise", []Comparison{{Category: core.FoodAndDining, Change: 66.666}}, MonthlyStrategy{}, "Food & Dining is up 67% vs last month."},
		{"drop", []Comparison{{Category: core.Shopping, Change: -45.4}}, WeeklyStrategy{}, "Shopping is down 45% vs last week."},
		{"threshold", []Comparison{{Category: core.Health, Change: 20}}, MonthlyStrategy{}, "No significant changes this month."},
		{"below threshold", []Comparison{{Category: core.Health, Change: -19.9}}, YearlyStrategy{}, "No significant changes this year."},
		{"new spending", []Comparison{{Category: core.Utilities, Change: 100}}, DailyStrategy{}, "Utilities is up 100% vs yesterday."},
		{"only the top counts", []Comparison{{Category: core.Other, Change: 5}, {Category: core.Health, Change: 300}}, MonthlyStrategy{}, "No significant changes this month."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Insight(tt.comps, tt.s); got != tt.expect {
				t.Errorf("Insight() = %q, want %q", got, tt.expect)
			}
		})
	}
}
