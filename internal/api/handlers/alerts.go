package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/models"
	"crowdwatch-go/internal/services/alerting"
)

type AlertHandler struct {
	svc    *alerting.Service
	router models.Broadcaster
}

func NewAlertHandler(svc *alerting.Service, router models.Broadcaster) *AlertHandler {
	return &AlertHandler{svc: svc, router: router}
}

type AlertListResponse struct {
	Alerts []models.Alert `json:"alerts"`
}

// @Summary List alerts
// @Description List an event's alerts, newest first, optionally filtered by status
// @Tags alerts
// @Accept json
// @Produce json
// @Param eventId query string true "Event identifier"
// @Param status query string false "active or resolved"
// @Success 200 {object} AlertListResponse
// @Failure 400 {object} ErrorBody
// @Router /api/alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	eventID := c.Query("eventId")
	if eventID == "" {
		respondError(c, apperr.New(apperr.CodeMissingEvent, "eventId required"))
		return
	}

	status := models.AlertStatus(c.Query("status"))
	if status != "" && status != models.AlertStatusActive && status != models.AlertStatusResolved {
		respondError(c, apperr.Newf(apperr.CodeInvalidPayload, "unknown status %q", status))
		return
	}

	c.JSON(http.StatusOK, AlertListResponse{Alerts: h.svc.List(eventID, status)})
}

// @Summary Resolve an alert
// @Description Mark an alert resolved. Resolving twice is a no-op.
// @Tags alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert identifier"
// @Success 200 {object} models.Alert
// @Failure 404 {object} ErrorBody
// @Router /api/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *gin.Context) {
	alert, err := h.svc.Resolve(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.router.Publish(alert.EventID, models.ChannelAlertUpdated, models.AlertUpdated{
		ID:         alert.ID,
		Status:     alert.Status,
		ResolvedAt: alert.ResolvedAt,
	})

	c.JSON(http.StatusOK, alert)
}
