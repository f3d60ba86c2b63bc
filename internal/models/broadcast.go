package models

import "time"

// Logical broadcast channels delivered to event subscriber groups
const (
	ChannelMapUpdate        = "map:update"
	ChannelAlertNew         = "alert:new"
	ChannelAlertUpdated     = "alert:updated"
	ChannelInsightUpdate    = "insight:update"
	ChannelPredictionUpdate = "prediction:update"
	ChannelActionCreated    = "action:created"
	ChannelReportNew        = "report:new"
)

// AlertNew is the payload broadcast when a rule fires
type AlertNew struct {
	ID        string        `json:"id"`
	Type      AlertType     `json:"type"`
	Message   string        `json:"message"`
	Severity  AlertSeverity `json:"severity"`
	Status    AlertStatus   `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AlertUpdated is the payload broadcast when an alert is resolved
type AlertUpdated struct {
	ID         string      `json:"id"`
	Status     AlertStatus `json:"status"`
	ResolvedAt *time.Time  `json:"resolvedAt,omitempty"`
}

// MessagePublisher abstracts the durable message bus used for at-least-once
// persistence hand-off of alerts and pings
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}

// Broadcaster delivers a payload to an event's subscriber group on a
// logical channel, best effort
type Broadcaster interface {
	Publish(eventID, channel string, payload interface{})
}

// Identity is the verified caller identity attached to each request by the
// authentication collaborator. The core trusts it as given.
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
