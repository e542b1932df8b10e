package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veritas-team/meeting-pipeline/internal/infrastructure/http/middleware"
	"github.com/veritas-team/meeting-pipeline/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	pipelineHandler *Pipeline
	cronAuth        *middleware.CronAuth
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, pipelineHandler *Pipeline, cronAuth *middleware.CronAuth) *Router {
	return &Router{
		cfg:             cfg,
		pipelineHandler: pipelineHandler,
		cronAuth:        cronAuth,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupPipelineRoutes(v1)
}

// setupPipelineRoutes configures the stage trigger surface
func (rt *Router) setupPipelineRoutes(g *echo.Group) {
	pipelineGroup := g.Group("/pipeline", rt.cronAuth.Require)

	pipelineGroup.POST("/calendar-events", rt.pipelineHandler.ScanCalendars)
	pipelineGroup.POST("/instant-meetings", rt.pipelineHandler.DispatchInstant)
	pipelineGroup.POST("/scheduled-meetings", rt.pipelineHandler.DispatchScheduled)
	pipelineGroup.POST("/transcripts", rt.pipelineHandler.RetrieveTranscripts)
	pipelineGroup.POST("/participants", rt.pipelineHandler.MatchParticipants)
	pipelineGroup.POST("/analysis", rt.pipelineHandler.AnalyzeMeetings)

	pipelineGroup.POST("/meetings/:id/reprocess", rt.pipelineHandler.Reprocess)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().UTC().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
