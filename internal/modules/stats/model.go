// README: Reporting shapes returned by the statistics aggregator.
package stats

import (
	"errors"

	"galley/internal/modules/rollup"
)

var ErrBadRequest = errors.New("bad request")

// Thresholds counted by the raw fallback; the rollup job uses the same ones.
const (
	Over10MinSeconds = 600
	Over15MinSeconds = 900
)

// PrepTimeStats is the aggregate over a window. Numeric fields are nil when
// there is no data; counts are zero.
type PrepTimeStats struct {
	TotalItems        int      `json:"totalItems"`
	AvgPrepSeconds    *float64 `json:"avgPrepSeconds"`
	MedianPrepSeconds *float64 `json:"medianPrepSeconds"`
	P90PrepSeconds    *float64 `json:"p90PrepSeconds"`
	MinPrepSeconds    *float64 `json:"minPrepSeconds"`
	MaxPrepSeconds    *float64 `json:"maxPrepSeconds"`
	ItemsOver10Min    int      `json:"itemsOver10min"`
	ItemsOver15Min    int      `json:"itemsOver15min"`
	// Trend is the percentage change of the recent half of the window against
	// the older half. Always nil in fallback mode.
	Trend *float64 `json:"trend"`
}

// Source names where a report's numbers came from.
type Source string

const (
	SourceRollup Source = "rollup"
	SourceEvents Source = "events"
	SourceNone   Source = "none"
)

type PrepTimeReport struct {
	Stats  PrepTimeStats         `json:"stats"`
	Daily  []rollup.DailySummary `json:"daily"`
	Source Source                `json:"source"`
}

// StationStats is the 30-day summary of one station.
type StationStats struct {
	TotalItems        int      `json:"totalItems"`
	AvgPrepSeconds    *float64 `json:"avgPrepSeconds"`
	MedianPrepSeconds *float64 `json:"medianPrepSeconds"`
}
