// README: Peak-hour multiplier from the hourly pattern rollup with a static lunch/dinner heuristic.
package eta

import (
	"context"
	"log/slog"
	"time"

	"galley/internal/modules/rollup"
	"galley/internal/types"
)

const (
	minPeakMultiplier = 0.8
	maxPeakMultiplier = 1.5
	rushMultiplier    = 1.2
)

// Rush windows, inclusive on both ends, in local hours.
var rushWindows = [][2]int{{11, 14}, {18, 21}}

type HourlyReader interface {
	ListHourlyPatterns(ctx context.Context, tenantID types.ID, station *types.Station) ([]rollup.HourlyPattern, error)
}

type PeakEstimator struct {
	rollups HourlyReader
	timeout time.Duration
	log     *slog.Logger
}

func NewPeakEstimator(rollups HourlyReader, timeout time.Duration, log *slog.Logger) *PeakEstimator {
	if log == nil {
		log = slog.Default()
	}
	return &PeakEstimator{rollups: rollups, timeout: timeout, log: log}
}

// Multiplier returns the prep-time factor for the given local hour and
// weekday. Read failures and timeouts use the heuristic.
func (p *PeakEstimator) Multiplier(ctx context.Context, tenantID types.ID, hour int, weekday time.Weekday) float64 {
	qctx, cancel := withQueryTimeout(ctx, p.timeout)
	defer cancel()

	rows, err := p.rollups.ListHourlyPatterns(qctx, tenantID, nil)
	if err != nil {
		p.log.WarnContext(ctx, "hourly pattern unavailable", "action", "peak_multiplier", "tenant_id", string(tenantID), "error", err.Error())
		return HeuristicMultiplier(hour)
	}
	return PeakMultiplier(rows, hour, weekday)
}

// PeakMultiplier is the mean of the matching (hour, weekday) bucket over the
// mean of every bucket, clamped to [0.8, 1.5].
func PeakMultiplier(rows []rollup.HourlyPattern, hour int, weekday time.Weekday) float64 {
	var hourSum, allSum float64
	var hourN, allN int
	for _, r := range rows {
		if r.AvgPrepSeconds == nil {
			continue
		}
		allSum += *r.AvgPrepSeconds
		allN++
		if r.HourOfDay == hour && r.DayOfWeek == int(weekday) {
			hourSum += *r.AvgPrepSeconds
			hourN++
		}
	}
	if hourN == 0 || allN == 0 {
		return HeuristicMultiplier(hour)
	}
	overall := allSum / float64(allN)
	if overall <= 0 {
		return HeuristicMultiplier(hour)
	}
	ratio := (hourSum / float64(hourN)) / overall
	return min(max(ratio, minPeakMultiplier), maxPeakMultiplier)
}

// HeuristicMultiplier is 1.2 inside the lunch and dinner rush, 1.0 otherwise.
func HeuristicMultiplier(hour int) float64 {
	for _, w := range rushWindows {
		if hour >= w[0] && hour <= w[1] {
			return rushMultiplier
		}
	}
	return 1.0
}

func withQueryTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
