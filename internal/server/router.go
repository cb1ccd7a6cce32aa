package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusgrid/timetabling/internal/handler"
	"github.com/campusgrid/timetabling/internal/logger"
	"github.com/campusgrid/timetabling/internal/metrics"
	"github.com/campusgrid/timetabling/internal/middleware"
	"github.com/campusgrid/timetabling/internal/middleware/requestid"
	"github.com/campusgrid/timetabling/internal/service"
)

// Dependencies wires the router to the scheduler and its observability.
type Dependencies struct {
	APIPrefix string
	Scheduler *service.SchedulerService
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.APIPrefix == "" {
		deps.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	schedules := handler.NewScheduleHandler(deps.Scheduler)
	api := r.Group(deps.APIPrefix)
	api.POST("/schedules", schedules.Compute)
	api.POST("/schedules/validate", schedules.Validate)
	api.POST("/semesters/:semester/schedules", schedules.ComputeSemester)

	return r
}
