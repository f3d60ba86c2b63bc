package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"crowdwatch-go/internal/services/broadcast"
)

type SocketHandler struct {
	router   *broadcast.Router
	upgrader websocket.Upgrader
}

func NewSocketHandler(router *broadcast.Router) *SocketHandler {
	return &SocketHandler{
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers send the dashboard's origin; cross-origin access
			// control already happened at the token check.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// @Summary Live event stream
// @Description Upgrade to a websocket delivering map, alert, insight, and
// @Description action messages for the subscribed event
// @Tags socket
// @Param eventId query string false "Event to subscribe to immediately"
// @Param token query string false "JWT for clients that cannot set headers"
// @Success 101
// @Router /ws [get]
func (h *SocketHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := broadcast.NewClient(h.router, conn)
	if eventID := c.Query("eventId"); eventID != "" {
		h.router.Subscribe(client, eventID)
	}
	client.Run()
}
