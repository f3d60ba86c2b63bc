package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crowdwatch-go/internal/config"
	"crowdwatch-go/internal/services/messaging"
	"crowdwatch-go/internal/services/storage"
)

type HealthHandler struct {
	cfg       *config.Config
	messaging *messaging.Service
	storage   *storage.Service
	startedAt time.Time
}

func NewHealthHandler(cfg *config.Config, msg *messaging.Service, store *storage.Service) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		messaging: msg,
		storage:   store,
		startedAt: time.Now(),
	}
}

type HealthResponse struct {
	Status        string `json:"status" example:"healthy"`
	UptimeSeconds int64  `json:"uptimeSeconds" example:"42"`
	Nats          string `json:"nats" example:"connected"`
	Redis         string `json:"redis" example:"connected"`
}

type ServiceInfoResponse struct {
	Service      string   `json:"service" example:"crowdwatch"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Check process health and the state of optional collaborators
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	natsStatus := "disabled"
	if h.messaging != nil {
		natsStatus = "disconnected"
		if h.messaging.IsConnected() {
			natsStatus = "connected"
		}
	}

	redisStatus := "disabled"
	if h.storage != nil {
		redisStatus = "connected"
		if err := h.storage.Ping(c.Request.Context()); err != nil {
			redisStatus = "disconnected"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Nats:          natsStatus,
		Redis:         redisStatus,
	})
}

// @Summary Service information
// @Description Get basic service information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} ServiceInfoResponse
// @Router / [get]
func (h *HealthHandler) ServiceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, ServiceInfoResponse{
		Service: "crowdwatch",
		Status:  "running",
		Version: h.cfg.Version,
		Capabilities: []string{
			"ping_ingestion",
			"detection_alerting",
			"density_mapping",
			"live_broadcast",
			"ml_prediction",
		},
	})
}
