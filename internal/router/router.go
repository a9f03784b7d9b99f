package router

import (
	"github.com/gin-gonic/gin"

	"github.com/vendorconnect/jobs/internal/handler/health"
	"github.com/vendorconnect/jobs/internal/handler/prometheus"
	"github.com/vendorconnect/jobs/internal/middleware"
	"github.com/vendorconnect/jobs/pkg/logger"
)

// NewRouter builds the small ops surface served next to the scheduler:
// liveness, readiness and the metrics scrape endpoint.
func NewRouter(healthH *health.Handler, promH *prometheus.Handler, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		promH.Middleware(),
	)

	healthH.RegisterRoutes(engine)
	engine.GET("/metrics", promH.Handler())

	return engine
}
