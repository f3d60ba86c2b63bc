package api

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.ServiceInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ws", s.authMiddleware(), s.socketHandler.Serve)

	api := s.router.Group("/api", s.authMiddleware())
	{
		api.POST("/pings", s.ingestHandler.IngestPing)
		api.POST("/cctv/objects", s.ingestHandler.IngestDetections)

		api.GET("/map", s.mapHandler.Snapshot)

		alerts := api.Group("/alerts")
		{
			alerts.GET("", s.alertHandler.List)
			alerts.POST("/:id/resolve", s.alertHandler.Resolve)
		}

		ai := api.Group("/ai")
		{
			ai.GET("/insights", s.aiHandler.Insights)
			ai.GET("/predictions", s.aiHandler.Predictions)
		}

		reports := api.Group("/reports")
		{
			reports.POST("", s.reportHandler.Create)
			reports.GET("", s.reportHandler.List)
		}

		actions := api.Group("/actions")
		{
			actions.POST("", s.actionHandler.Create)
			actions.GET("", s.actionHandler.List)
		}
	}
}
