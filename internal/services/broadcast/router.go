// Package broadcast fans typed update messages out to event-scoped
// subscriber groups over websockets. Delivery is best-effort: a slow
// subscriber's buffer overflows and the message is dropped for that
// subscriber only.
package broadcast

import (
	"sync"

	"github.com/rs/zerolog/log"

	"crowdwatch-go/internal/metrics"
)

// Message is one update on a logical channel
type Message struct {
	Channel string      `json:"channel"`
	Data    interface{} `json:"data"`
}

// group is the mutual-exclusion domain for one event's subscribers.
// Serializing Publish under the group lock is what gives FIFO delivery
// per group.
type group struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
}

// Router maintains per-event subscriber groups. A connection belongs to at
// most one group at a time; re-subscribing moves it.
type Router struct {
	buffer int

	mu         sync.RWMutex
	groups     map[string]*group
	membership map[*Client]string
}

// NewRouter creates a router whose subscribers get send buffers of the
// given size
func NewRouter(buffer int) *Router {
	if buffer <= 0 {
		buffer = 256
	}
	return &Router{
		buffer:     buffer,
		groups:     make(map[string]*group),
		membership: make(map[*Client]string),
	}
}

// Subscribe adds the client to eventID's group, moving it out of any
// previous group first
func (r *Router) Subscribe(c *Client, eventID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, wasMember := r.membership[c]
	if wasMember {
		if prev == eventID {
			return
		}
		r.removeFromGroup(c, prev)
	} else {
		metrics.Subscribers.Inc()
	}

	g, ok := r.groups[eventID]
	if !ok {
		g = &group{clients: make(map[*Client]struct{})}
		r.groups[eventID] = g
	}
	g.mu.Lock()
	g.clients[c] = struct{}{}
	g.mu.Unlock()
	r.membership[c] = eventID

	log.Debug().Str("event_id", eventID).Msg("Subscriber joined event group")
}

// Unsubscribe removes the client from its group and closes its send
// buffer. Safe to call more than once.
func (r *Router) Unsubscribe(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	eventID, ok := r.membership[c]
	if !ok {
		return
	}
	r.removeFromGroup(c, eventID)
	delete(r.membership, c)
	metrics.Subscribers.Dec()
	c.closeSend()

	log.Debug().Str("event_id", eventID).Msg("Subscriber left event group")
}

// Publish delivers payload to every current subscriber of eventID on the
// named channel. Never blocks and never fails: full buffers drop.
func (r *Router) Publish(eventID, channel string, payload interface{}) {
	r.mu.RLock()
	g, ok := r.groups[eventID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	msg := Message{Channel: channel, Data: payload}

	g.mu.Lock()
	defer g.mu.Unlock()
	for c := range g.clients {
		select {
		case c.send <- msg:
			metrics.BroadcastsSent.WithLabelValues(channel).Inc()
		default:
			metrics.BroadcastsDropped.WithLabelValues(channel).Inc()
			log.Warn().
				Str("event_id", eventID).
				Str("channel", channel).
				Msg("Subscriber buffer full, message dropped")
		}
	}
}

// GroupSize reports the current subscriber count for an event
func (r *Router) GroupSize(eventID string) int {
	r.mu.RLock()
	g, ok := r.groups[eventID]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

// removeFromGroup detaches the client, dropping the group when it empties.
// Caller holds r.mu.
func (r *Router) removeFromGroup(c *Client, eventID string) {
	g, ok := r.groups[eventID]
	if !ok {
		return
	}
	g.mu.Lock()
	delete(g.clients, c)
	empty := len(g.clients) == 0
	g.mu.Unlock()
	if empty {
		delete(r.groups, eventID)
	}
}
