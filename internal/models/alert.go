package models

import (
	"fmt"
	"time"
)

// AlertType represents the categories of safety alerts raised for an event
type AlertType string

const (
	AlertTypeOvercrowd AlertType = "overcrowd"
	AlertTypeSurge     AlertType = "surge"
	AlertTypePanic     AlertType = "panic"
	AlertTypeGateBlock AlertType = "gate_block"
)

// AlertSeverity represents the severity level of alerts
type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "low"
	AlertSeverityMed      AlertSeverity = "med"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"
)

// AlertStatus tracks the lifecycle of an alert. Alerts are never deleted,
// only resolved.
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

// AlertSource identifies what raised the alert
type AlertSource string

const (
	AlertSourceRule   AlertSource = "rule"
	AlertSourceML     AlertSource = "ml"
	AlertSourceManual AlertSource = "manual"
)

// Alert is a safety alert raised for an event. ResolvedAt is set if and
// only if Status is resolved.
type Alert struct {
	ID         string        `json:"id"`
	EventID    string        `json:"eventId"`
	ZoneID     string        `json:"zoneId,omitempty"`
	Type       AlertType     `json:"type"`
	Message    string        `json:"message"`
	Severity   AlertSeverity `json:"severity"`
	Status     AlertStatus   `json:"status"`
	Source     AlertSource   `json:"source"`
	CreatedAt  time.Time     `json:"createdAt"`
	ResolvedAt *time.Time    `json:"resolvedAt,omitempty"`
}

// CooldownKey identifies the suppression bucket for an alert rule.
// One entry per (event, rule) pair.
type CooldownKey struct {
	EventID string
	RuleKey string
}

func (k CooldownKey) String() string {
	return fmt.Sprintf("%s:%s", k.EventID, k.RuleKey)
}

// DetectionBatch is a camera's report of objects observed in a time slice.
// Consumed once by the rule engine, not retained.
type DetectionBatch struct {
	EventID     string    `json:"eventId"`
	SourceID    string    `json:"sourceId"`
	CapturedAt  time.Time `json:"capturedAt"`
	ObjectCount int       `json:"objectCount"`
}
