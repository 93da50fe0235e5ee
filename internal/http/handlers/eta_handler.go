// README: ETA handlers for single and batch order predictions.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"galley/internal/http/middleware"
	"galley/internal/modules/eta"
	"galley/internal/modules/order"
	"galley/internal/types"
)

type Predictor interface {
	Predict(ctx context.Context, orderID types.ID) (*eta.Prediction, error)
	PredictBatch(ctx context.Context, orderIDs []types.ID) (map[types.ID]*eta.Prediction, error)
}

type ETAHandler struct {
	eta Predictor
}

func NewETAHandler(p Predictor) *ETAHandler {
	return &ETAHandler{eta: p}
}

type etaResponse struct {
	*eta.Prediction
	Display string    `json:"display"`
	Range   eta.Range `json:"range"`
}

func newETAResponse(p *eta.Prediction) etaResponse {
	return etaResponse{
		Prediction: p,
		Display:    eta.FormatETA(p.ETAMinutes),
		Range:      eta.ETARange(p.ETAMinutes, p.Confidence),
	}
}

type batchReq struct {
	OrderIDs []string `json:"order_ids"`
}

func (h *ETAHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	p, err := h.eta.Predict(c.Request.Context(), types.ID(id))
	if err != nil {
		writePredictionError(c, err)
		return
	}
	if !visibleTo(c, p) {
		writeError(c, http.StatusNotFound, order.ErrNotFound.Error())
		return
	}
	writeJSON(c, http.StatusOK, newETAResponse(p))
}

func (h *ETAHandler) Batch(c *gin.Context) {
	var req batchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ids := make([]types.ID, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		if !isValidID(id) {
			writeError(c, http.StatusBadRequest, "invalid order id")
			return
		}
		ids = append(ids, types.ID(id))
	}
	preds, err := h.eta.PredictBatch(c.Request.Context(), ids)
	if err != nil {
		writePredictionError(c, err)
		return
	}
	out := make(map[types.ID]etaResponse, len(preds))
	for id, p := range preds {
		if visibleTo(c, p) {
			out[id] = newETAResponse(p)
		}
	}
	writeJSON(c, http.StatusOK, gin.H{"predictions": out})
}

// visibleTo hides orders of other tenants. A caller without a tenant claim
// sees every order.
func visibleTo(c *gin.Context, p *eta.Prediction) bool {
	tenant := middleware.CallerTenant(c)
	return tenant == "" || types.ID(tenant) == p.TenantID
}
