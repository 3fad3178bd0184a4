package routes

import (
	"time"

	"assettracker/internal/core/container"
	"assettracker/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter builds the engine with recovery, metrics and the request timeout
// applied to every route.
func NewRouter(container *container.Container, requestTimeout time.Duration, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), middleware.RecoveryMiddleware(logger), middleware.Prometheus())

	RegisterUtilityRoutes(router)
	RegisterPublicRoutes(router, container, requestTimeout)

	return router
}

func RegisterPublicRoutes(router *gin.Engine, container *container.Container, requestTimeout time.Duration) {
	api := router.Group("")
	api.Use(middleware.TimeoutMiddleware(requestTimeout), middleware.RateLimitWrites(container.RateLimiter))

	container.CategoryHandler.RegisterRoutes(api)
	container.AssetHandler.RegisterRoutes(api)
	container.TransferHandler.RegisterRoutes(api)
	container.LocationHandler.RegisterRoutes(api)
}

func RegisterUtilityRoutes(router *gin.Engine) {
	router.GET("/health", middleware.HealthCheckMiddleware())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
