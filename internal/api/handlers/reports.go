package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/models"
	"crowdwatch-go/internal/services/reports"
)

type ReportHandler struct {
	svc *reports.Service
}

func NewReportHandler(svc *reports.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

type ReportListResponse struct {
	Reports []models.Report `json:"reports"`
}

// @Summary File an incident report
// @Description File a free-text incident report. Retries carrying the same
// @Description Idempotency-Key header return the original report.
// @Tags reports
// @Accept json
// @Produce json
// @Param report body reports.Input true "Incident report"
// @Param Idempotency-Key header string false "Client retry key"
// @Success 202 {object} models.Report
// @Failure 400 {object} ErrorBody
// @Router /api/reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var input reports.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidPayload, "malformed JSON body"))
		return
	}
	input.IdempotencyKey = c.GetHeader("Idempotency-Key")

	report, err := h.svc.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, report)
}

// @Summary List reports
// @Description List an event's incident reports, newest first
// @Tags reports
// @Accept json
// @Produce json
// @Param eventId query string true "Event identifier"
// @Success 200 {object} ReportListResponse
// @Failure 400 {object} ErrorBody
// @Router /api/reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	eventID := c.Query("eventId")
	if eventID == "" {
		respondError(c, apperr.New(apperr.CodeMissingEvent, "eventId required"))
		return
	}

	c.JSON(http.StatusOK, ReportListResponse{Reports: h.svc.List(eventID)})
}
