// README: Read-only rollup store backed by PostgreSQL.
package rollup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"galley/internal/types"
)

// Store never writes; absence of rows is reported as empty results, not errors.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ListDailySummaries returns the daily rows of the last `days` days,
// most recent first.
func (s *Store) ListDailySummaries(ctx context.Context, tenantID types.ID, station *types.Station, days int) ([]DailySummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT summary_date, station, items_completed,
		       avg_prep_seconds, median_prep_seconds, p90_prep_seconds,
		       min_prep_seconds, max_prep_seconds,
		       items_over_10min, items_over_15min
		FROM prep_time_daily_summary
		WHERE tenant_id = $1
		  AND ($2::text IS NULL OR station = $2)
		  AND summary_date >= CURRENT_DATE - $3::int
		ORDER BY summary_date DESC, station`,
		string(tenantID), stationArg(station), days,
	)
	if err != nil {
		return nil, fmt.Errorf("query daily summaries: %w", err)
	}
	defer rows.Close()

	var out []DailySummary
	for rows.Next() {
		var d DailySummary
		if err := rows.Scan(
			&d.Date, &d.Station, &d.ItemsCompleted,
			&d.AvgPrepSeconds, &d.MedianPrepSeconds, &d.P90PrepSeconds,
			&d.MinPrepSeconds, &d.MaxPrepSeconds,
			&d.ItemsOver10Min, &d.ItemsOver15Min,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountHistoryDays counts the distinct days with rollup data in the window.
func (s *Store) CountHistoryDays(ctx context.Context, tenantID types.ID, days int) (int, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT summary_date)
		FROM prep_time_daily_summary
		WHERE tenant_id = $1
		  AND summary_date >= CURRENT_DATE - $2::int`,
		string(tenantID), days,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count history days: %w", err)
	}
	return n, nil
}

// GetItemSummary reports found=false when the item has no 30-day row.
func (s *Store) GetItemSummary(ctx context.Context, tenantID, menuItemID types.ID) (*ItemSummary, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT s.menu_item_id, COALESCE(m.name, '{}'::jsonb), s.station,
		       s.times_prepared, s.avg_prep_seconds, s.median_prep_seconds
		FROM prep_time_item_summary s
		LEFT JOIN menu_items m ON m.id = s.menu_item_id
		WHERE s.tenant_id = $1 AND s.menu_item_id = $2`,
		string(tenantID), string(menuItemID),
	)
	it, err := scanItemSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query item summary: %w", err)
	}
	return it, true, nil
}

// ListItemSummaries returns every item row for ranking, unordered.
func (s *Store) ListItemSummaries(ctx context.Context, tenantID types.ID, station *types.Station) ([]ItemSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT s.menu_item_id, COALESCE(m.name, '{}'::jsonb), s.station,
		       s.times_prepared, s.avg_prep_seconds, s.median_prep_seconds
		FROM prep_time_item_summary s
		LEFT JOIN menu_items m ON m.id = s.menu_item_id
		WHERE s.tenant_id = $1
		  AND ($2::text IS NULL OR s.station = $2)`,
		string(tenantID), stationArg(station),
	)
	if err != nil {
		return nil, fmt.Errorf("query item summaries: %w", err)
	}
	defer rows.Close()

	var out []ItemSummary
	for rows.Next() {
		it, err := scanItemSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func scanItemSummary(row pgx.Row) (*ItemSummary, error) {
	var it ItemSummary
	var station sql.NullString
	if err := row.Scan(&it.MenuItemID, &it.Names, &station, &it.TimesPrepared, &it.AvgPrepSeconds, &it.MedianPrepSeconds); err != nil {
		return nil, err
	}
	if station.Valid {
		st := types.Station(station.String)
		it.Station = &st
	}
	return &it, nil
}

func (s *Store) ListHourlyPatterns(ctx context.Context, tenantID types.ID, station *types.Station) ([]HourlyPattern, error) {
	rows, err := s.db.Query(ctx, `
		SELECT day_of_week, hour_of_day, station, items_completed,
		       avg_prep_seconds, median_prep_seconds
		FROM prep_time_hourly_pattern
		WHERE tenant_id = $1
		  AND ($2::text IS NULL OR station = $2)
		ORDER BY day_of_week, hour_of_day, station`,
		string(tenantID), stationArg(station),
	)
	if err != nil {
		return nil, fmt.Errorf("query hourly patterns: %w", err)
	}
	defer rows.Close()

	var out []HourlyPattern
	for rows.Next() {
		var h HourlyPattern
		if err := rows.Scan(&h.DayOfWeek, &h.HourOfDay, &h.Station, &h.ItemsCompleted, &h.AvgPrepSeconds, &h.MedianPrepSeconds); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListReadyEvents returns the raw transitions into `ready` of the last
// `days` days whose duration is inside the sane range.
func (s *Store) ListReadyEvents(ctx context.Context, tenantID types.ID, station *types.Station, days int) ([]StatusChangeEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT order_item_id, from_status, to_status, station, changed_at, duration_from_previous_seconds
		FROM order_item_status_events
		WHERE tenant_id = $1
		  AND ($2::text IS NULL OR station = $2)
		  AND to_status = 'ready'
		  AND changed_at >= NOW() - make_interval(days => $3::int)
		  AND duration_from_previous_seconds > $4
		  AND duration_from_previous_seconds < $5
		ORDER BY changed_at DESC`,
		string(tenantID), stationArg(station), days, float64(MinSaneDurationSeconds), float64(MaxSaneDurationSeconds),
	)
	if err != nil {
		return nil, fmt.Errorf("query status events: %w", err)
	}
	defer rows.Close()

	var out []StatusChangeEvent
	for rows.Next() {
		var e StatusChangeEvent
		var station sql.NullString
		if err := rows.Scan(&e.ItemID, &e.FromStatus, &e.ToStatus, &station, &e.ChangedAt, &e.DurationFromPreviousSeconds); err != nil {
			return nil, err
		}
		if station.Valid {
			st := types.Station(station.String)
			e.Station = &st
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ListDailyAggregates(ctx context.Context, tenantID types.ID, days int) ([]DailyAggregate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT aggregate_date, orders_total, orders_completed, orders_cancelled,
		       items_total, avg_order_seconds, revenue
		FROM daily_aggregates
		WHERE tenant_id = $1
		  AND aggregate_date >= CURRENT_DATE - $2::int
		ORDER BY aggregate_date DESC`,
		string(tenantID), days,
	)
	if err != nil {
		return nil, fmt.Errorf("query daily aggregates: %w", err)
	}
	defer rows.Close()

	var out []DailyAggregate
	for rows.Next() {
		var a DailyAggregate
		if err := rows.Scan(&a.Date, &a.OrdersTotal, &a.OrdersCompleted, &a.OrdersCancelled, &a.ItemsTotal, &a.AvgOrderSeconds, &a.Revenue); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func stationArg(st *types.Station) any {
	if st == nil {
		return nil
	}
	return string(*st)
}
