package eta

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galley/internal/modules/order"
	"galley/internal/modules/rollup"
	"galley/internal/types"
)

func TestPredict_TerminalOrdersShortCircuit(t *testing.T) {
	now := at(12, 0)
	for _, st := range []order.Status{order.StatusReady, order.StatusDelivered, order.StatusCancelled} {
		t.Run(string(st), func(t *testing.T) {
			rollups := &fakeRollups{}
			orders := &fakeOrders{orders: map[types.ID]*order.Order{
				"o1": {ID: "o1", TenantID: "t1", Status: st, Items: []order.Item{
					{ID: "i1", Status: order.ItemPending, MenuItemID: idp("latte")},
				}},
			}}
			p, err := newTestEngine(orders, rollups, now).Predict(context.Background(), "o1")
			require.NoError(t, err)
			assert.Equal(t, 0, p.ETASeconds)
			assert.Equal(t, 0, p.ETAMinutes)
			assert.Equal(t, types.ConfidenceHigh, p.Confidence)
			assert.NotNil(t, p.Breakdown)
			assert.Empty(t, p.Breakdown)
			assert.Equal(t, now, p.ETAReadyAt)
			assert.Zero(t, rollups.itemCalls, "no lookups for a finished order")
		})
	}
}

func TestPredict_NoHistoryUsesDefaults(t *testing.T) {
	orders := &fakeOrders{orders: map[types.ID]*order.Order{
		"o1": {ID: "o1", TenantID: "t1", Status: order.StatusPreparing, Items: []order.Item{
			{ID: "i1", Status: order.ItemPending, Names: map[string]string{"en": "Latte"}},
			{ID: "i2", Status: order.ItemPending, Names: map[string]string{"id": "Roti Bakar"}},
		}},
	}}

	tests := []struct {
		name        string
		now         time.Time
		want        int
		wantPercent int
	}{
		{"off peak", at(15, 0), 300, 0},
		{"lunch", at(12, 30), 360, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newTestEngine(orders, &fakeRollups{}, tt.now).Predict(context.Background(), "o1")
			require.NoError(t, err)

			want := tt.want
			assert.Equal(t, types.ConfidenceLow, p.Confidence)
			require.Len(t, p.Breakdown, 2)
			assert.Equal(t, want, p.Breakdown[0].EstimatedSeconds)
			assert.Equal(t, want, p.Breakdown[1].EstimatedSeconds)
			assert.Equal(t, "Latte", p.Breakdown[0].Name)
			assert.Equal(t, "Roti Bakar", p.Breakdown[1].Name)
			assert.Nil(t, p.Breakdown[0].ElapsedSeconds)
			assert.Equal(t, want, p.ETASeconds)
			assert.Equal(t, 2, p.ItemsRemaining)
			assert.Equal(t, 300, p.Factors.BaseEstimateSeconds)
			assert.Equal(t, tt.wantPercent, p.Factors.PeakHourAdjustmentPercent)
			assert.Equal(t, tt.now.Add(time.Duration(want)*time.Second), p.ETAReadyAt)
		})
	}
}

func TestPredict_OrderEtaIsMaxNotSum(t *testing.T) {
	kitchen, bar := types.StationKitchen, types.StationBar
	rollups := &fakeRollups{items: map[types.ID]*rollup.ItemSummary{
		"espresso": {MedianPrepSeconds: fp(200)},
		"lasagna":  {MedianPrepSeconds: fp(500)},
	}}
	orders := &fakeOrders{orders: map[types.ID]*order.Order{
		"o1": {ID: "o1", TenantID: "t1", Status: order.StatusPreparing, Items: []order.Item{
			{ID: "i1", Status: order.ItemPending, Station: &bar, MenuItemID: idp("espresso")},
			{ID: "i2", Status: order.ItemPending, Station: &kitchen, MenuItemID: idp("lasagna")},
		}},
	}}

	p, err := newTestEngine(orders, rollups, at(16, 0)).Predict(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, 500, p.ETASeconds)
	assert.Equal(t, 9, p.ETAMinutes)
	assert.Equal(t, 500, p.Factors.BaseEstimateSeconds)
	assert.Equal(t, 0, p.Factors.QueueAdjustmentSeconds)
}

func TestPredict_PreparingFloorAndElapsed(t *testing.T) {
	now := at(16, 0)
	longAgo := now.Add(-2 * time.Hour)
	recent := now.Add(-100 * time.Second)
	rollups := &fakeRollups{items: map[types.ID]*rollup.ItemSummary{
		"pizza": {MedianPrepSeconds: fp(400)},
	}}
	orders := &fakeOrders{orders: map[types.ID]*order.Order{
		"o1": {ID: "o1", TenantID: "t1", Status: order.StatusPreparing, Items: []order.Item{
			{ID: "over", Status: order.ItemPreparing, PreparingAt: &longAgo, MenuItemID: idp("pizza")},
			{ID: "mid", Status: order.ItemPreparing, PreparingAt: &recent, MenuItemID: idp("pizza")},
			{ID: "done", Status: order.ItemReady},
			{ID: "void", Status: order.ItemCancelled},
		}},
	}}

	p, err := newTestEngine(orders, rollups, now).Predict(context.Background(), "o1")
	require.NoError(t, err)
	require.Len(t, p.Breakdown, 4, "every item is listed")

	over := p.Breakdown[0]
	assert.Equal(t, 30, over.EstimatedSeconds)
	require.NotNil(t, over.ElapsedSeconds)
	assert.Equal(t, 7200, *over.ElapsedSeconds)

	mid := p.Breakdown[1]
	assert.Equal(t, 300, mid.EstimatedSeconds)
	assert.Equal(t, 100, *mid.ElapsedSeconds)

	assert.Equal(t, 0, p.Breakdown[2].EstimatedSeconds)
	void := p.Breakdown[3]
	assert.Equal(t, types.ID("void"), void.ItemID)
	assert.Equal(t, order.ItemCancelled, void.Status)
	assert.Equal(t, 0, void.EstimatedSeconds)
	assert.Nil(t, void.ElapsedSeconds)
	assert.Equal(t, 300, p.ETASeconds)
	assert.Equal(t, 2, p.ItemsPreparing)
	assert.Equal(t, 2, p.ItemsRemaining)
	assert.Equal(t, 1, p.ItemsReady)
}

func TestPreparingRemaining_Floor(t *testing.T) {
	for _, elapsed := range []float64{0, 299, 300, 301, 10_000, 1e9} {
		got := PreparingRemaining(300, elapsed, 1.0)
		assert.GreaterOrEqual(t, got, 30.0, "elapsed %v", elapsed)
	}
	assert.InDelta(t, 36.0, PreparingRemaining(300, 4000, 1.2), 1e-9)
	assert.InDelta(t, 24.0, PreparingRemaining(300, 4000, 0.8), 1e-9)
}

func TestPredict_QueueAdjustment(t *testing.T) {
	tests := []struct {
		name     string
		status   order.Status
		inFlight int
		countErr error
		want     int
	}{
		{"pending capped", order.StatusPending, 100, nil, 600},
		{"confirmed", order.StatusConfirmed, 4, nil, 180},
		{"preparing ignores queue", order.StatusPreparing, 100, nil, 0},
		{"count failure", order.StatusPending, 0, errors.New("timeout"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{
				inFlight: tt.inFlight,
				countErr: tt.countErr,
				orders: map[types.ID]*order.Order{
					"o1": {ID: "o1", TenantID: "t1", Status: tt.status, Items: []order.Item{
						{ID: "i1", Status: order.ItemPending},
					}},
				},
			}
			p, err := newTestEngine(orders, &fakeRollups{}, at(16, 0)).Predict(context.Background(), "o1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Factors.QueueAdjustmentSeconds)
			assert.Equal(t, 300+tt.want, p.ETASeconds, "queue is added once to the order maximum")
		})
	}
}

func TestQueueAdjustment(t *testing.T) {
	assert.Equal(t, 0, QueueAdjustment(0))
	assert.Equal(t, 45, QueueAdjustment(1))
	assert.Equal(t, 585, QueueAdjustment(13))
	assert.Equal(t, 600, QueueAdjustment(14))
	assert.Equal(t, 600, QueueAdjustment(100))
}

func TestConfidenceFor(t *testing.T) {
	tests := map[int]types.Confidence{
		30: types.ConfidenceHigh,
		14: types.ConfidenceHigh,
		13: types.ConfidenceMedium,
		7:  types.ConfidenceMedium,
		6:  types.ConfidenceLow,
		0:  types.ConfidenceLow,
	}
	for days, want := range tests {
		assert.Equal(t, want, ConfidenceFor(days), "days=%d", days)
	}
}

func TestPredict_ConfidenceFromHistory(t *testing.T) {
	orders := &fakeOrders{orders: map[types.ID]*order.Order{
		"o1": {ID: "o1", TenantID: "t1", Status: order.StatusPreparing, Items: []order.Item{{ID: "i1", Status: order.ItemPending}}},
	}}

	p, err := newTestEngine(orders, &fakeRollups{historyDays: 14}, at(16, 0)).Predict(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, types.ConfidenceHigh, p.Confidence)

	p, err = newTestEngine(orders, &fakeRollups{historyErr: errors.New("down")}, at(16, 0)).Predict(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, types.ConfidenceLow, p.Confidence)
}

func TestPredict_SlowRollupsDegradeToDefaults(t *testing.T) {
	orders := &fakeOrders{orders: map[types.ID]*order.Order{
		"o1": {ID: "o1", TenantID: "t1", Status: order.StatusPreparing, Items: []order.Item{
			{ID: "i1", Status: order.ItemPending, MenuItemID: idp("latte")},
		}},
	}}
	e := NewEngine(orders, &fakeRollups{block: true}, nil, quietLogger(), Options{
		QueryTimeout: 10 * time.Millisecond,
		Now:          func() time.Time { return at(19, 0) },
	})

	p, err := e.Predict(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, 360, p.ETASeconds, "default baseline with dinner heuristic")
	assert.Equal(t, types.ConfidenceLow, p.Confidence)
}

func TestPredict_LocalTimeBucketing(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	orders := &fakeOrders{orders: map[types.ID]*order.Order{
		"o1": {ID: "o1", TenantID: "t1", Status: order.StatusPreparing, Items: []order.Item{{ID: "i1", Status: order.ItemPending}}},
	}}
	// 05:00 UTC is 12:00 local.
	e := NewEngine(orders, &fakeRollups{}, nil, quietLogger(), Options{
		Location: loc,
		Now:      func() time.Time { return at(5, 0) },
	})

	p, err := e.Predict(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, 20, p.Factors.PeakHourAdjustmentPercent)
}

func TestPredict_OrderFetchFailure(t *testing.T) {
	orders := &fakeOrders{
		orders: map[types.ID]*order.Order{},
		getErr: map[types.ID]error{
			"broken":   errors.New("conn reset"),
			"archived": fmt.Errorf("order archived: %w \"archived\"", order.ErrInvalidStatus),
		},
	}
	e := newTestEngine(orders, &fakeRollups{}, at(12, 0))

	_, err := e.Predict(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPredictionUnavailable)
	assert.ErrorIs(t, err, order.ErrNotFound)

	_, err = e.Predict(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrPredictionUnavailable)
	assert.NotErrorIs(t, err, order.ErrNotFound)

	_, err = e.Predict(context.Background(), "archived")
	assert.ErrorIs(t, err, ErrPredictionUnavailable)
	assert.ErrorIs(t, err, order.ErrInvalidStatus)
}
