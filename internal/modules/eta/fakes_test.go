package eta

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"galley/internal/modules/order"
	"galley/internal/modules/rollup"
	"galley/internal/types"
)

type fakeOrders struct {
	orders   map[types.ID]*order.Order
	inFlight int
	countErr error
	getErr   map[types.ID]error
}

func (f *fakeOrders) Get(_ context.Context, id types.ID) (*order.Order, error) {
	if err := f.getErr[id]; err != nil {
		return nil, err
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) CountInFlightItems(context.Context, types.ID, types.ID) (int, error) {
	return f.inFlight, f.countErr
}

// fakeRollups is read-only after construction, so concurrent use is safe.
type fakeRollups struct {
	items       map[types.ID]*rollup.ItemSummary
	itemErr     error
	daily       map[types.Station][]rollup.DailySummary
	dailyAll    []rollup.DailySummary
	dailyErr    error
	hourly      []rollup.HourlyPattern
	hourlyErr   error
	historyDays int
	historyErr  error
	// block makes every rollup read wait for its context to end.
	block bool

	mu        sync.Mutex
	itemCalls int
}

func (f *fakeRollups) wait(ctx context.Context) error {
	if !f.block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeRollups) GetItemSummary(ctx context.Context, _ types.ID, id types.ID) (*rollup.ItemSummary, bool, error) {
	f.mu.Lock()
	f.itemCalls++
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, false, err
	}
	if f.itemErr != nil {
		return nil, false, f.itemErr
	}
	s, ok := f.items[id]
	return s, ok, nil
}

func (f *fakeRollups) ListDailySummaries(ctx context.Context, _ types.ID, station *types.Station, _ int) ([]rollup.DailySummary, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.dailyErr != nil {
		return nil, f.dailyErr
	}
	if station == nil {
		return f.dailyAll, nil
	}
	return f.daily[*station], nil
}

func (f *fakeRollups) ListHourlyPatterns(ctx context.Context, _ types.ID, _ *types.Station) ([]rollup.HourlyPattern, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.hourly, f.hourlyErr
}

func (f *fakeRollups) CountHistoryDays(ctx context.Context, _ types.ID, _ int) (int, error) {
	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	return f.historyDays, f.historyErr
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func fp(v float64) *float64 { return &v }

func idp(v types.ID) *types.ID { return &v }

func stationp(s types.Station) *types.Station { return &s }

// Wednesday 2026-03-04.
func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 4, hour, minute, 0, 0, time.UTC)
}

func newTestEngine(orders *fakeOrders, rollups *fakeRollups, now time.Time) *Engine {
	return NewEngine(orders, rollups, nil, quietLogger(), Options{
		QueryTimeout:     50 * time.Millisecond,
		BatchConcurrency: 4,
		DefaultLocale:    "en",
		Now:              func() time.Time { return now },
	})
}
