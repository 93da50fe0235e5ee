// README: ETA engine; walks the item state machine and folds remaining times into an order ETA.
package eta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"galley/internal/metrics"
	"galley/internal/modules/order"
	"galley/internal/modules/rollup"
	"galley/internal/types"
)

const (
	minPreparingSeconds  = 30
	queueSecondsPerItem  = 45
	maxQueueSeconds      = 600
	confidenceWindowDays = 30
	highConfidenceDays   = 14
	mediumConfidenceDays = 7
)

type OrderReader interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
	CountInFlightItems(ctx context.Context, tenantID, excludeOrderID types.ID) (int, error)
}

type RollupReader interface {
	BaselineReader
	HourlyReader
	CountHistoryDays(ctx context.Context, tenantID types.ID, days int) (int, error)
}

type Recorder interface {
	RecordPrediction(result string, took time.Duration)
	RecordBatch(n int)
}

type Options struct {
	QueryTimeout     time.Duration
	BatchConcurrency int
	DefaultLocale    string
	// Location is used for the hour and weekday of the peak lookup.
	Location *time.Location
	Now      func() time.Time
}

type Engine struct {
	orders   OrderReader
	rollups  RollupReader
	peak     *PeakEstimator
	resolver *Resolver
	metrics  Recorder
	log      *slog.Logger
	opts     Options
}

func NewEngine(orders OrderReader, rollups RollupReader, rec Recorder, log *slog.Logger, opts Options) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = (*metrics.Collector)(nil)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 1
	}
	return &Engine{
		orders:   orders,
		rollups:  rollups,
		peak:     NewPeakEstimator(rollups, opts.QueryTimeout, log),
		resolver: NewResolver(rollups, opts.QueryTimeout, log),
		metrics:  rec,
		log:      log,
		opts:     opts,
	}
}

// Predict computes the ETA of one order. The only error is a failed order
// fetch, wrapped in ErrPredictionUnavailable; missing history never fails.
func (e *Engine) Predict(ctx context.Context, orderID types.ID) (*Prediction, error) {
	start := time.Now()
	o, err := e.orders.Get(ctx, orderID)
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, order.ErrNotFound) {
			result = metrics.ResultNotFound
		}
		e.metrics.RecordPrediction(result, time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrPredictionUnavailable, err)
	}
	p := e.predict(ctx, o)
	e.metrics.RecordPrediction(metrics.ResultOK, time.Since(start))
	return p, nil
}

func (e *Engine) predict(ctx context.Context, o *order.Order) *Prediction {
	now := e.opts.Now()
	if o.Status.Terminal() {
		return &Prediction{
			OrderID:    o.ID,
			TenantID:   o.TenantID,
			ETAReadyAt: now,
			Confidence: types.ConfidenceHigh,
			Breakdown:  []ItemEstimate{},
		}
	}

	var (
		multiplier float64
		confidence types.Confidence
		queued     int
		baselines  = make([]float64, len(o.Items))
	)
	local := now.In(e.opts.Location)

	var g errgroup.Group
	g.Go(func() error {
		multiplier = e.peak.Multiplier(ctx, o.TenantID, local.Hour(), local.Weekday())
		return nil
	})
	g.Go(func() error {
		confidence = e.confidence(ctx, o.TenantID)
		return nil
	})
	if o.Status.Queued() {
		g.Go(func() error {
			queued = e.queueDepth(ctx, o)
			return nil
		})
	}
	for i, it := range o.Items {
		if !it.Status.InFlight() {
			continue
		}
		g.Go(func() error {
			baselines[i], _ = e.resolver.Resolve(ctx, o.TenantID, it.MenuItemID, it.Station)
			return nil
		})
	}
	_ = g.Wait()

	p := &Prediction{
		OrderID:    o.ID,
		TenantID:   o.TenantID,
		Confidence: confidence,
		Breakdown:  make([]ItemEstimate, 0, len(o.Items)),
	}
	var longest float64
	var critical float64
	for i, it := range o.Items {
		est := ItemEstimate{
			ItemID: it.ID,
			Name:   it.DisplayName(e.opts.DefaultLocale, "en"),
			Status: it.Status,
		}
		var remaining float64
		// cancelled items stay in the breakdown at zero and count nowhere
		switch {
		case it.Status.Done():
			p.ItemsReady++
		case it.Status == order.ItemPreparing:
			p.ItemsPreparing++
			p.ItemsRemaining++
			elapsed := elapsedSeconds(now, it.PreparingAt)
			if it.PreparingAt != nil {
				est.ElapsedSeconds = &elapsed
			}
			remaining = PreparingRemaining(baselines[i], float64(elapsed), multiplier)
		case it.Status == order.ItemPending:
			p.ItemsRemaining++
			remaining = baselines[i] * multiplier
		}
		est.EstimatedSeconds = int(math.Round(remaining))
		if remaining > longest {
			longest = remaining
			critical = baselines[i]
		}
		p.Breakdown = append(p.Breakdown, est)
	}

	queue := 0
	if o.Status.Queued() {
		queue = QueueAdjustment(queued)
	}
	p.ETASeconds = int(math.Round(longest)) + queue
	p.ETAMinutes = Minutes(p.ETASeconds)
	p.ETAReadyAt = now.Add(time.Duration(p.ETASeconds) * time.Second)
	p.Factors = Factors{
		BaseEstimateSeconds:       int(math.Round(critical)),
		PeakHourAdjustmentPercent: int(math.Round((multiplier - 1) * 100)),
		QueueAdjustmentSeconds:    queue,
	}
	return p
}

func (e *Engine) confidence(ctx context.Context, tenantID types.ID) types.Confidence {
	qctx, cancel := withQueryTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()
	days, err := e.rollups.CountHistoryDays(qctx, tenantID, confidenceWindowDays)
	if err != nil {
		e.log.WarnContext(ctx, "history depth unavailable", "action", "confidence", "tenant_id", string(tenantID), "error", err.Error())
		return types.ConfidenceLow
	}
	return ConfidenceFor(days)
}

// queueDepth reads a table other requests are changing; a stale count is fine.
func (e *Engine) queueDepth(ctx context.Context, o *order.Order) int {
	qctx, cancel := withQueryTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()
	n, err := e.orders.CountInFlightItems(qctx, o.TenantID, o.ID)
	if err != nil {
		e.log.WarnContext(ctx, "queue depth unavailable", "action", "queue_depth", "tenant_id", string(o.TenantID), "order_id", string(o.ID), "error", err.Error())
		return 0
	}
	return n
}

// PreparingRemaining floors the time left at 30 seconds before applying the
// peak factor.
func PreparingRemaining(baseline, elapsed, multiplier float64) float64 {
	return max(baseline-elapsed, minPreparingSeconds) * multiplier
}

// QueueAdjustment is 45 seconds per item ahead, capped at 10 minutes.
func QueueAdjustment(itemsAhead int) int {
	if itemsAhead <= 0 {
		return 0
	}
	return min(itemsAhead*queueSecondsPerItem, maxQueueSeconds)
}

func ConfidenceFor(historyDays int) types.Confidence {
	switch {
	case historyDays >= highConfidenceDays:
		return types.ConfidenceHigh
	case historyDays >= mediumConfidenceDays:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// Minutes rounds seconds up to whole minutes.
func Minutes(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}

func elapsedSeconds(now time.Time, since *time.Time) int {
	if since == nil {
		return 0
	}
	d := now.Sub(*since)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

var _ RollupReader = (*rollup.Store)(nil)
var _ OrderReader = (*order.Store)(nil)
