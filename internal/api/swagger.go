package api

import (
	"net/http"

	_ "crowdwatch-go/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (s *Server) setupSwagger() {
	s.router.GET("/api/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"title":       "Crowdwatch API",
			"version":     s.config.Version,
			"description": "Crowd-safety monitoring backend: ping and detection ingestion, density mapping, alerting, and live broadcast",
			"swagger_ui":  "/docs/index.html",
			"endpoints": gin.H{
				"health":  "/health",
				"metrics": "/metrics",
				"pings":   "/api/pings",
				"cctv":    "/api/cctv/objects",
				"map":     "/api/map",
				"alerts":  "/api/alerts",
				"ai":      "/api/ai",
				"reports": "/api/reports",
				"actions": "/api/actions",
				"socket":  "/ws",
			},
			"port": s.config.Port,
		})
	})

	s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
}
