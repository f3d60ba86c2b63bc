package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/services/ingest"
)

type IngestHandler struct {
	svc *ingest.Service
}

func NewIngestHandler(svc *ingest.Service) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type PingAcceptedResponse struct {
	OK bool `json:"ok" example:"true"`
}

type DetectionResultResponse struct {
	OK      bool        `json:"ok" example:"true"`
	AlertID string      `json:"alertId,omitempty" example:"7f4df2cd-9a51-4f83-9f44-1fb9b7a2a3f1"`
	Alert   interface{} `json:"alert,omitempty"`
}

// @Summary Ingest a location ping
// @Description Record a device location ping into the event's sliding window
// @Tags ingest
// @Accept json
// @Produce json
// @Param ping body ingest.PingInput true "Location ping"
// @Success 202 {object} PingAcceptedResponse
// @Failure 400 {object} ErrorBody
// @Router /api/pings [post]
func (h *IngestHandler) IngestPing(c *gin.Context) {
	var input ingest.PingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidPayload, "malformed JSON body"))
		return
	}

	if _, err := h.svc.IngestPing(c.Request.Context(), input); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, PingAcceptedResponse{OK: true})
}

// @Summary Ingest a camera detection batch
// @Description Evaluate a CCTV object detection batch against the crowd rules
// @Tags ingest
// @Accept json
// @Produce json
// @Param batch body ingest.DetectionInput true "Detection batch"
// @Success 200 {object} DetectionResultResponse
// @Failure 400 {object} ErrorBody
// @Router /api/cctv/objects [post]
func (h *IngestHandler) IngestDetections(c *gin.Context) {
	var input ingest.DetectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidPayload, "malformed JSON body"))
		return
	}

	alert, err := h.svc.IngestDetections(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := DetectionResultResponse{OK: true}
	if alert != nil {
		resp.AlertID = alert.ID
		resp.Alert = alert
	}
	c.JSON(http.StatusOK, resp)
}
