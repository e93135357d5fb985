package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter builds the admin API router.
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/status", handler.GetStatus)
		apiGroup.POST("/scan", handler.TriggerScan)
		apiGroup.GET("/stats", handler.GetGroupStats)
		apiGroup.GET("/hard-caps", handler.GetHardCaps)
		apiGroup.PUT("/hard-caps", handler.UpdateHardCaps)
	}

	return router
}
