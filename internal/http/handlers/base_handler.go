// README: Base handler utilities (JSON helpers, query parsing, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"galley/internal/http/middleware"
	"galley/internal/modules/eta"
	"galley/internal/modules/order"
	"galley/internal/modules/stats"
	"galley/internal/types"
)

const (
	defaultReportDays   = 7
	defaultRankingLimit = 10
)

var errMissingTenant = errors.New("missing tenant claim")

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts the ids the order workflow issues: up to 64 chars of
// letters, digits, '-' and '_'.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writePredictionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(c, http.StatusNotFound, order.ErrNotFound.Error())
	case errors.Is(err, eta.ErrBatchTooLarge):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, eta.ErrPredictionUnavailable):
		writeError(c, http.StatusServiceUnavailable, eta.ErrPredictionUnavailable.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stats.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, errMissingTenant):
		writeError(c, http.StatusForbidden, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// queryInt returns def when the parameter is absent.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	v, ok := c.GetQuery(name)
	if !ok || v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func queryStation(c *gin.Context) (*types.Station, bool) {
	return types.ParseStation(c.Query("station"))
}

func callerTenant(c *gin.Context) (types.ID, error) {
	t := middleware.CallerTenant(c)
	if t == "" {
		return "", errMissingTenant
	}
	return types.ID(t), nil
}
