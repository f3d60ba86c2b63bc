package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/models"
	"crowdwatch-go/internal/services/prediction"
)

type AIHandler struct {
	svc    *prediction.Service
	router models.Broadcaster
}

func NewAIHandler(svc *prediction.Service, router models.Broadcaster) *AIHandler {
	return &AIHandler{svc: svc, router: router}
}

// @Summary Crowd insight
// @Description Current risk assessment for an event. Served from the last
// @Description good answer when the predictor is struggling, never an error.
// @Tags ai
// @Accept json
// @Produce json
// @Param eventId query string true "Event identifier"
// @Success 200 {object} models.Insight
// @Failure 400 {object} ErrorBody
// @Router /api/ai/insights [get]
func (h *AIHandler) Insights(c *gin.Context) {
	eventID := c.Query("eventId")
	if eventID == "" {
		respondError(c, apperr.New(apperr.CodeMissingEvent, "eventId required"))
		return
	}

	insight := h.svc.Insights(c.Request.Context(), eventID, nil)
	h.router.Publish(eventID, models.ChannelInsightUpdate, insight)

	c.JSON(http.StatusOK, insight)
}

// @Summary Zone risk predictions
// @Description Per-zone risk forecast for the requested horizon
// @Tags ai
// @Accept json
// @Produce json
// @Param eventId query string true "Event identifier"
// @Param horizonMinutes query int false "Forecast horizon in minutes (default 5)"
// @Success 200 {object} models.PredictionResult
// @Failure 400 {object} ErrorBody
// @Router /api/ai/predictions [get]
func (h *AIHandler) Predictions(c *gin.Context) {
	eventID := c.Query("eventId")
	if eventID == "" {
		respondError(c, apperr.New(apperr.CodeMissingEvent, "eventId required"))
		return
	}

	horizon := 0
	if raw := c.Query("horizonMinutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperr.New(apperr.CodeInvalidPayload, "horizonMinutes must be an integer"))
			return
		}
		horizon = parsed
	}

	result := h.svc.Predictions(c.Request.Context(), eventID, horizon, nil)
	h.router.Publish(eventID, models.ChannelPredictionUpdate, result)

	c.JSON(http.StatusOK, result)
}
