package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/models"
	"crowdwatch-go/internal/services/actions"
)

type ActionHandler struct {
	svc *actions.Service
}

func NewActionHandler(svc *actions.Service) *ActionHandler {
	return &ActionHandler{svc: svc}
}

type ActionListResponse struct {
	Actions []models.Action `json:"actions"`
}

// @Summary Issue an operator action
// @Description Record an operator command and announce it to the event's subscribers
// @Tags actions
// @Accept json
// @Produce json
// @Param action body actions.Input true "Operator action"
// @Success 201 {object} models.Action
// @Failure 400 {object} ErrorBody
// @Router /api/actions [post]
func (h *ActionHandler) Create(c *gin.Context) {
	var input actions.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidPayload, "malformed JSON body"))
		return
	}

	action, err := h.svc.Create(input, callerIdentity(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, action)
}

// @Summary List actions
// @Description List an event's operator actions, newest first
// @Tags actions
// @Accept json
// @Produce json
// @Param eventId query string true "Event identifier"
// @Success 200 {object} ActionListResponse
// @Failure 400 {object} ErrorBody
// @Router /api/actions [get]
func (h *ActionHandler) List(c *gin.Context) {
	eventID := c.Query("eventId")
	if eventID == "" {
		respondError(c, apperr.New(apperr.CodeMissingEvent, "eventId required"))
		return
	}

	c.JSON(http.StatusOK, ActionListResponse{Actions: h.svc.List(eventID)})
}
