package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spatialgrid/internal/service/query"
)

// SetupMainHandlers registers the main application endpoints
func SetupMainHandlers(router *gin.RouterGroup, svc *query.QueryService, config map[string]string) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"port":     config["port"],
			"dbUrl":    config["dbUrl"],
			"redisUrl": config["redisUrl"],
			"grid":     svc.GridSummary(),
		})
	})
}
