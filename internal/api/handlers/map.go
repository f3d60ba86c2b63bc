package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/services/ingest"
)

type MapHandler struct {
	svc *ingest.Service
}

func NewMapHandler(svc *ingest.Service) *MapHandler {
	return &MapHandler{svc: svc}
}

// @Summary Map snapshot
// @Description Windowed, box-filtered points with the recomputed density grid
// @Tags map
// @Accept json
// @Produce json
// @Param eventId query string true "Event identifier"
// @Param bbox query string true "minLng,minLat,maxLng,maxLat"
// @Param windowSec query int false "Window in seconds (default 300)"
// @Success 200 {object} models.MapUpdate
// @Failure 400 {object} ErrorBody
// @Router /api/map [get]
func (h *MapHandler) Snapshot(c *gin.Context) {
	eventID := c.Query("eventId")

	windowSec := 0
	if raw := c.Query("windowSec"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperr.New(apperr.CodeInvalidPayload, "windowSec must be an integer"))
			return
		}
		windowSec = parsed
	}

	snapshot, err := h.svc.MapSnapshot(eventID, c.Query("bbox"), windowSec)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
