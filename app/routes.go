package main

import (
	"github.com/gin-gonic/gin"
)

func (g *Gateway) initializeRoutes(router *gin.Engine) {
	router.GET("/", infoHandler)
	router.GET("/stats", g.statsHandler)

	router.GET("/recommendations", g.handleRecommendations)
	router.GET("/images/:type", g.handleTypedImage)
	router.GET("/daily-wallpaper", g.handleDailyWallpaper)
	router.POST("/generate-image", g.handleGenerateImage)

	router.NoRoute(notFoundHandler)
}
