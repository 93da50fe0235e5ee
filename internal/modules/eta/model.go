// README: Prediction shapes returned to order-status callers.
package eta

import (
	"errors"
	"time"

	"galley/internal/modules/order"
	"galley/internal/types"
)

var (
	ErrPredictionUnavailable = errors.New("prediction unavailable")
	ErrBatchTooLarge         = errors.New("batch too large")
)

type Prediction struct {
	OrderID        types.ID         `json:"orderId"`
	TenantID       types.ID         `json:"-"`
	ETASeconds     int              `json:"etaSeconds"`
	ETAMinutes     int              `json:"etaMinutes"`
	ETAReadyAt     time.Time        `json:"etaReadyAtTimestamp"`
	Confidence     types.Confidence `json:"confidence"`
	ItemsRemaining int              `json:"itemsRemaining"`
	ItemsPreparing int              `json:"itemsPreparing"`
	ItemsReady     int              `json:"itemsReady"`
	Breakdown      []ItemEstimate   `json:"breakdown"`
	Factors        Factors          `json:"factors"`
}

// ItemEstimate is the per-item drill-down. ElapsedSeconds is set only for
// items that are being prepared.
type ItemEstimate struct {
	ItemID           types.ID         `json:"itemId"`
	Name             string           `json:"name"`
	Status           order.ItemStatus `json:"status"`
	EstimatedSeconds int              `json:"estimatedSeconds"`
	ElapsedSeconds   *int             `json:"elapsedSeconds,omitempty"`
}

type Factors struct {
	BaseEstimateSeconds       int `json:"baseEstimateSeconds"`
	PeakHourAdjustmentPercent int `json:"peakHourAdjustmentPercent"`
	QueueAdjustmentSeconds    int `json:"queueAdjustmentSeconds"`
}
