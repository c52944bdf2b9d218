package api

import (
	routes "spatialgrid/internal/api/handlers"
	"spatialgrid/internal/metrics"
	"spatialgrid/internal/service/query"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, svc *query.QueryService, config map[string]string) {
	r.Use(metrics.Middleware())
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), svc, config)

	// Setup dataset and query handlers
	routes.SetupDatasetHandlers(api, svc)
	routes.SetupQueryHandlers(api, svc)
}
