// Package alerting evaluates detection counts against crowd-density
// thresholds and owns the alert lifecycle.
package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/config"
	"crowdwatch-go/internal/metrics"
	"crowdwatch-go/internal/models"
)

// Appender is the durable-store hand-off for fired alerts. At-least-once
// is acceptable: duplicates are prevented by the cooldown, not by storage.
type Appender interface {
	AppendAlert(ctx context.Context, alert models.Alert) error
}

// Service is the threshold rule engine with per-(event, rule) cooldown
// state. Alerts are kept in memory for the lifetime of the process and are
// only ever resolved, never deleted.
type Service struct {
	cfg       *config.Config
	publisher models.MessagePublisher
	store     Appender
	now       func() time.Time

	cooldownMu sync.Mutex
	lastFired  map[string]time.Time

	storeMu sync.RWMutex
	alerts  map[string]*models.Alert
	byEvent map[string][]string
}

// NewService creates the rule engine. publisher and store may be nil; both
// are best-effort side channels.
func NewService(cfg *config.Config, publisher models.MessagePublisher, store Appender) *Service {
	return NewServiceWithClock(cfg, publisher, store, time.Now)
}

// NewServiceWithClock creates the rule engine with an injectable clock
func NewServiceWithClock(cfg *config.Config, publisher models.MessagePublisher, store Appender, now func() time.Time) *Service {
	s := &Service{
		cfg:       cfg,
		publisher: publisher,
		store:     store,
		now:       now,
		lastFired: make(map[string]time.Time),
		alerts:    make(map[string]*models.Alert),
		byEvent:   make(map[string][]string),
	}

	log.Info().
		Int("low_threshold", cfg.DetectionLowThreshold).
		Int("high_threshold", cfg.DetectionHighThreshold).
		Dur("cooldown", cfg.AlertCooldown).
		Msg("Alert rule engine initialized")

	return s
}

// EvaluateDetections applies the overcrowd rule to a detection count.
// Returns the fired alert, or nil when the count is below threshold or the
// rule is cooling down.
func (s *Service) EvaluateDetections(eventID, zoneID, sourceID string, detectionCount int) *models.Alert {
	metrics.DetectionsEvaluated.Inc()

	var severity models.AlertSeverity
	switch {
	case detectionCount >= s.cfg.DetectionHighThreshold:
		severity = models.AlertSeverityHigh
	case detectionCount >= s.cfg.DetectionLowThreshold:
		severity = models.AlertSeverityMed
	default:
		return nil
	}

	key := models.CooldownKey{EventID: eventID, RuleKey: string(models.AlertTypeOvercrowd)}
	if !s.checkCooldown(key) {
		metrics.AlertsSuppressed.Inc()
		log.Debug().
			Str("event_id", eventID).
			Str("source_id", sourceID).
			Int("detection_count", detectionCount).
			Msg("Alert blocked by cooldown")
		return nil
	}

	now := s.now()
	alert := &models.Alert{
		ID:        uuid.NewString(),
		EventID:   eventID,
		ZoneID:    zoneID,
		Type:      models.AlertTypeOvercrowd,
		Message:   fmt.Sprintf("High crowd density detected by %s", sourceID),
		Severity:  severity,
		Status:    models.AlertStatusActive,
		Source:    models.AlertSourceRule,
		CreatedAt: now,
	}

	s.storeMu.Lock()
	s.alerts[alert.ID] = alert
	s.byEvent[eventID] = append(s.byEvent[eventID], alert.ID)
	s.storeMu.Unlock()

	s.updateCooldown(key, now)
	metrics.AlertsFired.WithLabelValues(string(severity)).Inc()

	s.persist(*alert)

	log.Info().
		Str("event_id", eventID).
		Str("alert_id", alert.ID).
		Str("severity", string(severity)).
		Int("detection_count", detectionCount).
		Msg("Alert fired")

	fired := *alert
	return &fired
}

// Resolve transitions an alert to resolved. Idempotent: resolving an
// already-resolved alert returns its current state unchanged.
func (s *Service) Resolve(id string) (*models.Alert, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "alert %s not found", id)
	}
	if alert.Status == models.AlertStatusResolved {
		copied := *alert
		return &copied, nil
	}

	resolvedAt := s.now()
	alert.Status = models.AlertStatusResolved
	alert.ResolvedAt = &resolvedAt

	log.Info().
		Str("event_id", alert.EventID).
		Str("alert_id", alert.ID).
		Msg("Alert resolved")

	copied := *alert
	return &copied, nil
}

// List returns an event's alerts, newest first, optionally filtered by status
func (s *Service) List(eventID string, status models.AlertStatus) []models.Alert {
	s.storeMu.RLock()
	defer s.storeMu.RUnlock()

	ids := s.byEvent[eventID]
	out := make([]models.Alert, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		alert := s.alerts[ids[i]]
		if status != "" && alert.Status != status {
			continue
		}
		out = append(out, *alert)
	}
	return out
}

// checkCooldown reports whether the rule may fire now
func (s *Service) checkCooldown(key models.CooldownKey) bool {
	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()

	last, exists := s.lastFired[key.String()]
	if !exists {
		return true
	}
	return s.now().Sub(last) >= s.cfg.AlertCooldown
}

// updateCooldown stamps the rule's last firing time
func (s *Service) updateCooldown(key models.CooldownKey, firedAt time.Time) {
	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()
	s.lastFired[key.String()] = firedAt
}

// persist hands the alert to the durable bus and store, best effort
func (s *Service) persist(alert models.Alert) {
	if s.publisher != nil {
		if err := s.publisher.Publish(s.cfg.AlertsSubject, alert); err != nil {
			log.Error().Err(err).Str("alert_id", alert.ID).Msg("Failed to publish alert to bus")
		}
	}
	if s.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.store.AppendAlert(ctx, alert); err != nil {
				log.Error().Err(err).Str("alert_id", alert.ID).Msg("Failed to append alert to store")
			}
		}()
	}
}
