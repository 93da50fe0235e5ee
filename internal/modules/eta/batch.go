// README: Batch predictor; independent per-order predictions fanned out and gathered into a map.
package eta

import (
	"context"

	"golang.org/x/sync/errgroup"

	"galley/internal/types"
)

const MaxBatchSize = 200

// PredictBatch predicts every distinct id concurrently. Orders whose
// prediction failed are left out of the map; one failure never stops the
// rest. The only error is ErrBatchTooLarge.
func (e *Engine) PredictBatch(ctx context.Context, orderIDs []types.ID) (map[types.ID]*Prediction, error) {
	ids := dedupe(orderIDs)
	if len(ids) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}
	e.metrics.RecordBatch(len(ids))

	results := make([]*Prediction, len(ids))
	var g errgroup.Group
	g.SetLimit(e.opts.BatchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := e.Predict(ctx, id)
			if err != nil {
				e.log.WarnContext(ctx, "order prediction skipped", "action", "predict_batch", "order_id", string(id), "error", err.Error())
				return nil
			}
			results[i] = p
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[types.ID]*Prediction, len(ids))
	for i, id := range ids {
		if results[i] != nil {
			out[id] = results[i]
		}
	}
	return out, nil
}

func dedupe(ids []types.ID) []types.ID {
	seen := make(map[types.ID]struct{}, len(ids))
	out := make([]types.ID, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
