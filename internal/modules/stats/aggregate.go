// README: Pure aggregation over daily rollup rows and raw duration samples.
package stats

import (
	"math"
	"sort"
	"time"

	"galley/internal/modules/rollup"
)

// Aggregate folds daily rows (most recent first) into one PrepTimeStats.
//
// The mean is weighted by each day's item count. Median and p90 are the plain
// mean of the per-day values: the rollups do not keep raw samples, so a true
// percentile cannot be rebuilt and the reporting numbers stay comparable with
// what the dashboards have always shown.
func Aggregate(days []rollup.DailySummary) PrepTimeStats {
	var out PrepTimeStats
	var medians, p90s meanAcc
	for _, d := range days {
		out.TotalItems += d.ItemsCompleted
		out.ItemsOver10Min += d.ItemsOver10Min
		out.ItemsOver15Min += d.ItemsOver15Min
		medians.add(d.MedianPrepSeconds)
		p90s.add(d.P90PrepSeconds)
		out.MinPrepSeconds = minPtr(out.MinPrepSeconds, d.MinPrepSeconds)
		out.MaxPrepSeconds = maxPtr(out.MaxPrepSeconds, d.MaxPrepSeconds)
	}
	if avg, ok := WeightedMean(days); ok {
		out.AvgPrepSeconds = &avg
	}
	out.MedianPrepSeconds = medians.mean()
	out.P90PrepSeconds = p90s.mean()
	out.Trend = Trend(days)
	return out
}

// WeightedMean is sum(count*avg)/sum(count) over rows that have both.
func WeightedMean(days []rollup.DailySummary) (float64, bool) {
	var weighted float64
	var count int
	for _, d := range days {
		if d.AvgPrepSeconds == nil || d.ItemsCompleted <= 0 {
			continue
		}
		weighted += float64(d.ItemsCompleted) * *d.AvgPrepSeconds
		count += d.ItemsCompleted
	}
	if count == 0 {
		return 0, false
	}
	return weighted / float64(count), true
}

// Trend compares the mean daily average of the recent half of the dates
// against the older half, in percent. Rows sharing a date (one per station)
// first collapse into that date's count-weighted average. Nil with fewer than
// two dates or a zero base.
func Trend(days []rollup.DailySummary) *float64 {
	daily := dailyAverages(days)
	if len(daily) < 2 {
		return nil
	}
	mid := len(daily) / 2
	var recent, older meanAcc
	for _, v := range daily[:mid] {
		recent.add(v)
	}
	for _, v := range daily[mid:] {
		older.add(v)
	}
	r, o := recent.mean(), older.mean()
	if r == nil || o == nil || *o == 0 {
		return nil
	}
	trend := (*r - *o) / *o * 100
	return &trend
}

// dailyAverages returns one average per distinct date, most recent first.
// A date whose rows carry no average yields nil but still counts as a day.
func dailyAverages(rows []rollup.DailySummary) []*float64 {
	byDate := make(map[string][]rollup.DailySummary)
	for _, r := range rows {
		key := r.Date.Format(time.DateOnly)
		byDate[key] = append(byDate[key], r)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	out := make([]*float64, len(dates))
	for i, d := range dates {
		if avg, ok := WeightedMean(byDate[d]); ok {
			out[i] = &avg
			continue
		}
		var plain meanAcc
		for _, r := range byDate[d] {
			plain.add(r.AvgPrepSeconds)
		}
		out[i] = plain.mean()
	}
	return out
}

// FromDurations computes the fallback statistics from raw samples. Trend is
// not available in this mode.
func FromDurations(durations []float64) PrepTimeStats {
	out := PrepTimeStats{TotalItems: len(durations)}
	if len(durations) == 0 {
		return out
	}
	sorted := make([]float64, len(durations))
	copy(sorted, durations)
	sort.Float64s(sorted)

	var sum float64
	for _, d := range sorted {
		sum += d
		if d > Over10MinSeconds {
			out.ItemsOver10Min++
		}
		if d > Over15MinSeconds {
			out.ItemsOver15Min++
		}
	}
	n := len(sorted)
	avg := sum / float64(n)
	median := sorted[n/2]
	p90 := sorted[int(math.Floor(float64(n)*0.9))]
	lo, hi := sorted[0], sorted[n-1]

	out.AvgPrepSeconds = &avg
	out.MedianPrepSeconds = &median
	out.P90PrepSeconds = &p90
	out.MinPrepSeconds = &lo
	out.MaxPrepSeconds = &hi
	return out
}

// SummarizeStation collapses one station's daily rows; nil when there are none.
func SummarizeStation(days []rollup.DailySummary) *StationStats {
	if len(days) == 0 {
		return nil
	}
	out := &StationStats{}
	var medians meanAcc
	for _, d := range days {
		out.TotalItems += d.ItemsCompleted
		medians.add(d.MedianPrepSeconds)
	}
	if avg, ok := WeightedMean(days); ok {
		out.AvgPrepSeconds = &avg
	}
	out.MedianPrepSeconds = medians.mean()
	return out
}

// Slowest returns up to limit items with the highest average prep time.
func Slowest(items []rollup.ItemSummary, limit int) []rollup.ItemSummary {
	return rank(items, limit, func(a, b float64) bool { return a > b })
}

// Fastest returns up to limit items with the lowest average prep time.
func Fastest(items []rollup.ItemSummary, limit int) []rollup.ItemSummary {
	return rank(items, limit, func(a, b float64) bool { return a < b })
}

func rank(items []rollup.ItemSummary, limit int, before func(a, b float64) bool) []rollup.ItemSummary {
	out := make([]rollup.ItemSummary, 0, len(items))
	for _, it := range items {
		if it.AvgPrepSeconds != nil {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := *out[i].AvgPrepSeconds, *out[j].AvgPrepSeconds
		if a == b {
			return out[i].MenuItemID < out[j].MenuItemID
		}
		return before(a, b)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m *meanAcc) mean() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

func minPtr(cur, v *float64) *float64 {
	if v == nil {
		return cur
	}
	if cur == nil || *v < *cur {
		x := *v
		return &x
	}
	return cur
}

func maxPtr(cur, v *float64) *float64 {
	if v == nil {
		return cur
	}
	if cur == nil || *v > *cur {
		x := *v
		return &x
	}
	return cur
}
