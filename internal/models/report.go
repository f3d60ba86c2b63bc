package models

import "time"

// Report is a free-text incident report filed by staff or attendees.
// Deduplicated by a hashed Idempotency-Key when the caller supplies one.
type Report struct {
	ID             string    `json:"id"`
	EventID        string    `json:"eventId"`
	ZoneID         string    `json:"zoneId,omitempty"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	Attachments    []string  `json:"attachments"`
	IdempotencyKey string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Action is an operator command issued in response to the live picture
// (open a gate, dispatch stewards, broadcast a message)
type Action struct {
	ID               string    `json:"id"`
	EventID          string    `json:"eventId"`
	ZoneID           string    `json:"zoneId,omitempty"`
	Command          string    `json:"command"`
	Notes            string    `json:"notes,omitempty"`
	RelatesToAlertID string    `json:"relatesToAlertId,omitempty"`
	CreatedBy        string    `json:"createdBy,omitempty"`
	DeliveredVia     []string  `json:"deliveredVia"`
	CreatedAt        time.Time `json:"createdAt"`
}
