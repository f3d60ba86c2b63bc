package broadcast

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// controlMessage is what subscribers may send upstream: switch event
// groups or leave
type controlMessage struct {
	Action  string `json:"action"`
	EventID string `json:"eventId"`
}

// Client is the middleman between one websocket connection and the router
type Client struct {
	router    *Router
	conn      *websocket.Conn
	send      chan Message
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection. The caller subscribes it and
// then calls Run.
func NewClient(router *Router, conn *websocket.Conn) *Client {
	return &Client{
		router: router,
		conn:   conn,
		send:   make(chan Message, router.buffer),
	}
}

// Run pumps the connection until it closes, then detaches it from the
// router. Blocks for the connection's lifetime.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump consumes control messages until the connection drops
func (c *Client) readPump() {
	defer func() {
		c.router.Unsubscribe(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg controlMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("Unexpected websocket close")
			}
			return
		}

		switch msg.Action {
		case "subscribe":
			if msg.EventID != "" {
				c.router.Subscribe(c, msg.EventID)
			}
		case "unsubscribe":
			c.router.Unsubscribe(c)
			return
		}
	}
}

// writePump drains the send buffer to the connection and keeps it alive
// with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Router closed the buffer on unsubscribe
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
