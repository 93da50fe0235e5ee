// README: Reporting handlers over the prep-time statistics service.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"galley/internal/modules/rollup"
	"galley/internal/modules/stats"
	"galley/internal/types"
)

type Reporter interface {
	GetPrepTimeStats(ctx context.Context, tenantID types.ID, days int, station *types.Station) (stats.PrepTimeReport, error)
	GetSlowestItems(ctx context.Context, tenantID types.ID, limit int, station *types.Station) ([]rollup.ItemSummary, error)
	GetFastestItems(ctx context.Context, tenantID types.ID, limit int, station *types.Station) ([]rollup.ItemSummary, error)
	GetHourlyPattern(ctx context.Context, tenantID types.ID, station *types.Station) ([]rollup.HourlyPattern, error)
	GetStationComparison(ctx context.Context, tenantID types.ID) (map[types.Station]*stats.StationStats, error)
	GetDailyAggregates(ctx context.Context, tenantID types.ID, days int) ([]rollup.DailyAggregate, error)
}

type ReportHandler struct {
	reports Reporter
}

func NewReportHandler(r Reporter) *ReportHandler {
	return &ReportHandler{reports: r}
}

func (h *ReportHandler) PrepTime(c *gin.Context) {
	tenant, err := callerTenant(c)
	if err != nil {
		writeReportError(c, err)
		return
	}
	days, ok := queryInt(c, "days", defaultReportDays)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid days")
		return
	}
	station, ok := queryStation(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid station")
		return
	}
	report, err := h.reports.GetPrepTimeStats(c.Request.Context(), tenant, days, station)
	if err != nil {
		writeReportError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, report)
}

func (h *ReportHandler) Slowest(c *gin.Context) {
	h.ranking(c, h.reports.GetSlowestItems)
}

func (h *ReportHandler) Fastest(c *gin.Context) {
	h.ranking(c, h.reports.GetFastestItems)
}

func (h *ReportHandler) ranking(c *gin.Context, get func(context.Context, types.ID, int, *types.Station) ([]rollup.ItemSummary, error)) {
	tenant, err := callerTenant(c)
	if err != nil {
		writeReportError(c, err)
		return
	}
	limit, ok := queryInt(c, "limit", defaultRankingLimit)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid limit")
		return
	}
	station, ok := queryStation(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid station")
		return
	}
	items, err := get(c.Request.Context(), tenant, limit, station)
	if err != nil {
		writeReportError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"items": items})
}

func (h *ReportHandler) HourlyPattern(c *gin.Context) {
	tenant, err := callerTenant(c)
	if err != nil {
		writeReportError(c, err)
		return
	}
	station, ok := queryStation(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid station")
		return
	}
	rows, err := h.reports.GetHourlyPattern(c.Request.Context(), tenant, station)
	if err != nil {
		writeReportError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"pattern": rows})
}

func (h *ReportHandler) Stations(c *gin.Context) {
	tenant, err := callerTenant(c)
	if err != nil {
		writeReportError(c, err)
		return
	}
	cmp, err := h.reports.GetStationComparison(c.Request.Context(), tenant)
	if err != nil {
		writeReportError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cmp)
}

func (h *ReportHandler) Daily(c *gin.Context) {
	tenant, err := callerTenant(c)
	if err != nil {
		writeReportError(c, err)
		return
	}
	days, ok := queryInt(c, "days", 30)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid days")
		return
	}
	rows, err := h.reports.GetDailyAggregates(c.Request.Context(), tenant, days)
	if err != nil {
		writeReportError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"days": rows})
}
