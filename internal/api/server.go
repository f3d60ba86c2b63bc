package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"crowdwatch-go/internal/api/handlers"
	"crowdwatch-go/internal/config"
	"crowdwatch-go/internal/services"
)

type Server struct {
	config   *config.Config
	services *services.ServiceContainer
	router   *gin.Engine
	server   *http.Server

	healthHandler *handlers.HealthHandler
	ingestHandler *handlers.IngestHandler
	mapHandler    *handlers.MapHandler
	alertHandler  *handlers.AlertHandler
	aiHandler     *handlers.AIHandler
	reportHandler *handlers.ReportHandler
	actionHandler *handlers.ActionHandler
	socketHandler *handlers.SocketHandler
}

func NewServer(cfg *config.Config, sc *services.ServiceContainer) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	return &Server{
		config:        cfg,
		services:      sc,
		router:        router,
		healthHandler: handlers.NewHealthHandler(cfg, sc.Messaging, sc.Storage),
		ingestHandler: handlers.NewIngestHandler(sc.Ingest),
		mapHandler:    handlers.NewMapHandler(sc.Ingest),
		alertHandler:  handlers.NewAlertHandler(sc.Alerts, sc.Router),
		aiHandler:     handlers.NewAIHandler(sc.Prediction, sc.Router),
		reportHandler: handlers.NewReportHandler(sc.Reports),
		actionHandler: handlers.NewActionHandler(sc.Actions),
		socketHandler: handlers.NewSocketHandler(sc.Router),
	}
}

func (s *Server) Setup() error {
	s.setupMiddleware()

	s.setupRoutes()

	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}

	return nil
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting Crowdwatch API")
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping Crowdwatch API")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetServer() *http.Server {
	return s.server
}
