// README: Typed rows of the precomputed prep-time rollups and the raw event fallback.
package rollup

import (
	"time"

	"galley/internal/types"
)

// Sane range for a single item's prep duration in the raw event fallback.
const (
	MinSaneDurationSeconds = 0
	MaxSaneDurationSeconds = 7200
)

// DailySummary is one (date, station) row of the daily prep-time rollup.
// Percentile and extrema fields are nil when the batch job had no samples.
type DailySummary struct {
	Date              time.Time     `json:"date"`
	Station           types.Station `json:"station"`
	ItemsCompleted    int           `json:"itemsCompleted"`
	AvgPrepSeconds    *float64      `json:"avgPrepSeconds"`
	MedianPrepSeconds *float64      `json:"medianPrepSeconds"`
	P90PrepSeconds    *float64      `json:"p90PrepSeconds"`
	MinPrepSeconds    *float64      `json:"minPrepSeconds"`
	MaxPrepSeconds    *float64      `json:"maxPrepSeconds"`
	ItemsOver10Min    int           `json:"itemsOver10min"`
	ItemsOver15Min    int           `json:"itemsOver15min"`
}

// ItemSummary is the 30-day rollup for one catalog item.
type ItemSummary struct {
	MenuItemID        types.ID          `json:"menuItemId"`
	Names             map[string]string `json:"names,omitempty"`
	Station           *types.Station    `json:"station"`
	TimesPrepared     int               `json:"timesPrepared"`
	AvgPrepSeconds    *float64          `json:"avgPrepSeconds"`
	MedianPrepSeconds *float64          `json:"medianPrepSeconds"`
}

// HourlyPattern is one (weekday, hour, station) bucket. DayOfWeek follows
// time.Weekday (0 = Sunday).
type HourlyPattern struct {
	DayOfWeek         int           `json:"dayOfWeek"`
	HourOfDay         int           `json:"hourOfDay"`
	Station           types.Station `json:"station"`
	ItemsCompleted    int           `json:"itemsCompleted"`
	AvgPrepSeconds    *float64      `json:"avgPrepSeconds"`
	MedianPrepSeconds *float64      `json:"medianPrepSeconds"`
}

// StatusChangeEvent is a raw item status transition.
type StatusChangeEvent struct {
	ItemID                      types.ID       `json:"itemId"`
	FromStatus                  *string        `json:"fromStatus"`
	ToStatus                    string         `json:"toStatus"`
	Station                     *types.Station `json:"station"`
	ChangedAt                   time.Time      `json:"changedAt"`
	DurationFromPreviousSeconds *float64       `json:"durationFromPreviousSeconds"`
}

// DailyAggregate is a row of the separate per-day order rollup.
type DailyAggregate struct {
	Date            time.Time `json:"date"`
	OrdersTotal     int       `json:"ordersTotal"`
	OrdersCompleted int       `json:"ordersCompleted"`
	OrdersCancelled int       `json:"ordersCancelled"`
	ItemsTotal      int       `json:"itemsTotal"`
	AvgOrderSeconds *float64  `json:"avgOrderSeconds"`
	Revenue         float64   `json:"revenue"`
}

// Durations extracts the prep durations of events, dropping missing and
// out-of-range values.
func Durations(events []StatusChangeEvent) []float64 {
	out := make([]float64, 0, len(events))
	for _, e := range events {
		if e.DurationFromPreviousSeconds == nil {
			continue
		}
		d := *e.DurationFromPreviousSeconds
		if d > MinSaneDurationSeconds && d < MaxSaneDurationSeconds {
			out = append(out, d)
		}
	}
	return out
}
