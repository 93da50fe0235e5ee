// README: Reporting service; reads rollups with fallback to raw history and never fails on missing data.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"galley/internal/modules/rollup"
	"galley/internal/types"
)

const (
	stationComparisonDays = 30
	maxReportDays         = 365
	maxRankingLimit       = 100
)

type RollupReader interface {
	ListDailySummaries(ctx context.Context, tenantID types.ID, station *types.Station, days int) ([]rollup.DailySummary, error)
	ListItemSummaries(ctx context.Context, tenantID types.ID, station *types.Station) ([]rollup.ItemSummary, error)
	ListHourlyPatterns(ctx context.Context, tenantID types.ID, station *types.Station) ([]rollup.HourlyPattern, error)
	ListReadyEvents(ctx context.Context, tenantID types.ID, station *types.Station, days int) ([]rollup.StatusChangeEvent, error)
	ListDailyAggregates(ctx context.Context, tenantID types.ID, days int) ([]rollup.DailyAggregate, error)
}

// Cache stores finished reports. Misses are reported with found=false.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

type FallbackRecorder interface {
	RecordFallback(source string)
}

type Service struct {
	rollups RollupReader
	cache   Cache
	metrics FallbackRecorder
	log     *slog.Logger
}

// NewService accepts nil cache and metrics.
func NewService(rollups RollupReader, cache Cache, metrics FallbackRecorder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{rollups: rollups, cache: cache, metrics: metrics, log: log}
}

// GetPrepTimeStats aggregates the last `days` days. A rollup failure falls
// back to raw event history; a history failure yields the empty shape.
func (s *Service) GetPrepTimeStats(ctx context.Context, tenantID types.ID, days int, station *types.Station) (PrepTimeReport, error) {
	if tenantID == "" || days < 1 || days > maxReportDays {
		return PrepTimeReport{}, ErrBadRequest
	}
	key := cacheKey("prep-time", tenantID, strconv.Itoa(days), stationKey(station))
	return cached(ctx, s, key, func() (PrepTimeReport, bool) {
		return s.loadPrepTimeStats(ctx, tenantID, days, station)
	}), nil
}

func (s *Service) loadPrepTimeStats(ctx context.Context, tenantID types.ID, days int, station *types.Station) (PrepTimeReport, bool) {
	rows, err := s.rollups.ListDailySummaries(ctx, tenantID, station, days)
	if err == nil {
		if rows == nil {
			rows = []rollup.DailySummary{}
		}
		return PrepTimeReport{Stats: Aggregate(rows), Daily: rows, Source: SourceRollup}, true
	}
	s.fallback(ctx, "daily_summary", tenantID, err)

	events, err := s.rollups.ListReadyEvents(ctx, tenantID, station, days)
	if err != nil {
		s.fallback(ctx, "status_events", tenantID, err)
		return PrepTimeReport{Stats: FromDurations(nil), Daily: []rollup.DailySummary{}, Source: SourceNone}, false
	}
	return PrepTimeReport{Stats: FromDurations(rollup.Durations(events)), Daily: []rollup.DailySummary{}, Source: SourceEvents}, false
}

func (s *Service) GetSlowestItems(ctx context.Context, tenantID types.ID, limit int, station *types.Station) ([]rollup.ItemSummary, error) {
	return s.rankedItems(ctx, "slowest", tenantID, limit, station, Slowest)
}

func (s *Service) GetFastestItems(ctx context.Context, tenantID types.ID, limit int, station *types.Station) ([]rollup.ItemSummary, error) {
	return s.rankedItems(ctx, "fastest", tenantID, limit, station, Fastest)
}

func (s *Service) rankedItems(ctx context.Context, kind string, tenantID types.ID, limit int, station *types.Station, pick func([]rollup.ItemSummary, int) []rollup.ItemSummary) ([]rollup.ItemSummary, error) {
	if tenantID == "" || limit < 1 || limit > maxRankingLimit {
		return nil, ErrBadRequest
	}
	key := cacheKey(kind, tenantID, strconv.Itoa(limit), stationKey(station))
	return cached(ctx, s, key, func() ([]rollup.ItemSummary, bool) {
		items, err := s.rollups.ListItemSummaries(ctx, tenantID, station)
		if err != nil {
			s.fallback(ctx, "item_summary", tenantID, err)
			return []rollup.ItemSummary{}, false
		}
		return pick(items, limit), true
	}), nil
}

func (s *Service) GetHourlyPattern(ctx context.Context, tenantID types.ID, station *types.Station) ([]rollup.HourlyPattern, error) {
	if tenantID == "" {
		return nil, ErrBadRequest
	}
	key := cacheKey("hourly", tenantID, stationKey(station))
	return cached(ctx, s, key, func() ([]rollup.HourlyPattern, bool) {
		rows, err := s.rollups.ListHourlyPatterns(ctx, tenantID, station)
		if err != nil {
			s.fallback(ctx, "hourly_pattern", tenantID, err)
			return []rollup.HourlyPattern{}, false
		}
		if rows == nil {
			rows = []rollup.HourlyPattern{}
		}
		return rows, true
	}), nil
}

// GetStationComparison summarizes the last 30 days per station. A station
// without rows, or whose read failed, maps to nil.
func (s *Service) GetStationComparison(ctx context.Context, tenantID types.ID) (map[types.Station]*StationStats, error) {
	if tenantID == "" {
		return nil, ErrBadRequest
	}
	key := cacheKey("stations", tenantID)
	return cached(ctx, s, key, func() (map[types.Station]*StationStats, bool) {
		results := make([]*StationStats, len(types.Stations))
		failed := make([]bool, len(types.Stations))
		var g errgroup.Group
		for i, st := range types.Stations {
			g.Go(func() error {
				rows, err := s.rollups.ListDailySummaries(ctx, tenantID, &st, stationComparisonDays)
				if err != nil {
					s.fallback(ctx, "daily_summary", tenantID, err)
					failed[i] = true
					return nil
				}
				results[i] = SummarizeStation(rows)
				return nil
			})
		}
		_ = g.Wait()

		out := make(map[types.Station]*StationStats, len(types.Stations))
		ok := true
		for i, st := range types.Stations {
			out[st] = results[i]
			ok = ok && !failed[i]
		}
		return out, ok
	}), nil
}

// GetDailyAggregates passes the per-day order rollup through unchanged.
func (s *Service) GetDailyAggregates(ctx context.Context, tenantID types.ID, days int) ([]rollup.DailyAggregate, error) {
	if tenantID == "" || days < 1 || days > maxReportDays {
		return nil, ErrBadRequest
	}
	key := cacheKey("daily", tenantID, strconv.Itoa(days))
	return cached(ctx, s, key, func() ([]rollup.DailyAggregate, bool) {
		rows, err := s.rollups.ListDailyAggregates(ctx, tenantID, days)
		if err != nil {
			s.fallback(ctx, "daily_aggregates", tenantID, err)
			return []rollup.DailyAggregate{}, false
		}
		if rows == nil {
			rows = []rollup.DailyAggregate{}
		}
		return rows, true
	}), nil
}

func (s *Service) fallback(ctx context.Context, source string, tenantID types.ID, err error) {
	s.log.WarnContext(ctx, "rollup read failed", "action", "report_fallback", "source", source, "tenant_id", string(tenantID), "error", err.Error())
	if s.metrics != nil {
		s.metrics.RecordFallback(source)
	}
}

// cached serves key from the cache when possible. Only results that load
// reports as complete are written back, so degraded answers are retried.
func cached[T any](ctx context.Context, s *Service, key string, load func() (T, bool)) T {
	if s.cache != nil {
		var hit T
		found, err := s.cache.Get(ctx, key, &hit)
		if err != nil {
			s.log.WarnContext(ctx, "report cache read failed", "action", "report_cache", "key", key, "error", err.Error())
		} else if found {
			return hit
		}
	}
	v, complete := load()
	if complete && s.cache != nil {
		if err := s.cache.Set(ctx, key, v); err != nil {
			s.log.WarnContext(ctx, "report cache write failed", "action", "report_cache", "key", key, "error", err.Error())
		}
	}
	return v
}

func cacheKey(kind string, tenantID types.ID, args ...string) string {
	key := fmt.Sprintf("galley:report:%s:%s", kind, tenantID)
	for _, a := range args {
		key += ":" + a
	}
	return key
}

func stationKey(st *types.Station) string {
	if st == nil {
		return "all"
	}
	return string(*st)
}
