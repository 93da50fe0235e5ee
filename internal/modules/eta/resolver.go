// README: Baseline prep seconds for one item: item history, then station history, then a fixed default.
package eta

import (
	"context"
	"log/slog"
	"time"

	"galley/internal/modules/rollup"
	"galley/internal/modules/stats"
	"galley/internal/types"
)

const (
	DefaultBaselineSeconds = 300
	stationLookbackDays    = 14
)

type BaselineReader interface {
	GetItemSummary(ctx context.Context, tenantID, menuItemID types.ID) (*rollup.ItemSummary, bool, error)
	ListDailySummaries(ctx context.Context, tenantID types.ID, station *types.Station, days int) ([]rollup.DailySummary, error)
}

// Source names the step that produced a baseline.
type Source string

const (
	SourceItem    Source = "item"
	SourceStation Source = "station"
	SourceDefault Source = "default"
)

// step yields a baseline, or ok=false to defer to the next step.
type step struct {
	source Source
	run    func(ctx context.Context) (seconds float64, ok bool, err error)
}

type Resolver struct {
	rollups BaselineReader
	timeout time.Duration
	log     *slog.Logger
}

func NewResolver(rollups BaselineReader, timeout time.Duration, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{rollups: rollups, timeout: timeout, log: log}
}

// Resolve walks the steps in priority order and returns the first value. A
// failing or timed out step is logged and skipped; the last step cannot fail.
func (r *Resolver) Resolve(ctx context.Context, tenantID types.ID, menuItemID *types.ID, station *types.Station) (float64, Source) {
	for _, s := range r.steps(tenantID, menuItemID, station) {
		qctx, cancel := withQueryTimeout(ctx, r.timeout)
		v, ok, err := s.run(qctx)
		cancel()
		if err != nil {
			r.log.WarnContext(ctx, "baseline lookup failed", "action", "resolve_baseline", "source", string(s.source), "tenant_id", string(tenantID), "error", err.Error())
			continue
		}
		if ok {
			return v, s.source
		}
	}
	return DefaultBaselineSeconds, SourceDefault
}

func (r *Resolver) steps(tenantID types.ID, menuItemID *types.ID, station *types.Station) []step {
	return []step{
		{source: SourceItem, run: func(ctx context.Context) (float64, bool, error) {
			if menuItemID == nil {
				return 0, false, nil
			}
			sum, found, err := r.rollups.GetItemSummary(ctx, tenantID, *menuItemID)
			if err != nil || !found {
				return 0, false, err
			}
			if sum.MedianPrepSeconds != nil {
				return *sum.MedianPrepSeconds, true, nil
			}
			if sum.AvgPrepSeconds != nil {
				return *sum.AvgPrepSeconds, true, nil
			}
			return 0, false, nil
		}},
		{source: SourceStation, run: func(ctx context.Context) (float64, bool, error) {
			rows, err := r.rollups.ListDailySummaries(ctx, tenantID, station, stationLookbackDays)
			if err != nil {
				return 0, false, err
			}
			v, ok := stats.WeightedMean(rows)
			return v, ok, nil
		}},
		{source: SourceDefault, run: func(context.Context) (float64, bool, error) {
			return DefaultBaselineSeconds, true, nil
		}},
	}
}
