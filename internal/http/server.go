// README: API gateway; wires middleware and routes onto a gin engine.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"galley/internal/http/handlers"
	"galley/internal/infra"
)

type ServerDeps struct {
	ETA      handlers.Predictor
	Reports  handlers.Reporter
	Verifier infra.TokenVerifier
	// Metrics serves GET /metrics; omitted when nil.
	Metrics http.Handler
	Log     *slog.Logger
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	return NewRouter(s.deps)
}
