// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"galley/internal/http/handlers"
	"galley/internal/http/middleware"
)

func NewRouter(deps ServerDeps) *gin.Engine {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	etaHandler := handlers.NewETAHandler(deps.ETA)
	api.GET("/orders/:id/eta", etaHandler.Get)
	api.POST("/orders/eta", etaHandler.Batch)

	reportHandler := handlers.NewReportHandler(deps.Reports)
	reports := api.Group("/reports")
	reports.GET("/prep-time", reportHandler.PrepTime)
	reports.GET("/items/slowest", reportHandler.Slowest)
	reports.GET("/items/fastest", reportHandler.Fastest)
	reports.GET("/hourly-pattern", reportHandler.HourlyPattern)
	reports.GET("/stations", reportHandler.Stations)
	reports.GET("/daily", reportHandler.Daily)

	return r
}
