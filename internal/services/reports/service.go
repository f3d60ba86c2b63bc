// Package reports takes in free-text incident reports, deduplicating
// retries by hashed Idempotency-Key.
package reports

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/models"
)

// Input is the raw report payload plus the optional idempotency key from
// the request header
type Input struct {
	EventID        string   `json:"eventId"`
	ZoneID         string   `json:"zoneId"`
	Type           string   `json:"type"`
	Message        string   `json:"message"`
	Attachments    []string `json:"attachments"`
	IdempotencyKey string   `json:"-"`
}

// Service stores reports in memory for the process lifetime
type Service struct {
	router models.Broadcaster
	now    func() time.Time

	mu      sync.RWMutex
	reports map[string]*models.Report
	byKey   map[string]string
	byEvent map[string][]string
}

func NewService(router models.Broadcaster) *Service {
	return NewServiceWithClock(router, time.Now)
}

func NewServiceWithClock(router models.Broadcaster, now func() time.Time) *Service {
	return &Service{
		router:  router,
		now:     now,
		reports: make(map[string]*models.Report),
		byKey:   make(map[string]string),
		byEvent: make(map[string][]string),
	}
}

// Create files a report. A retried request with the same Idempotency-Key
// returns the original report instead of a duplicate.
func (s *Service) Create(input Input) (*models.Report, error) {
	if input.EventID == "" || input.Message == "" {
		return nil, apperr.New(apperr.CodeInvalidPayload, "eventId and message required")
	}

	reportType := input.Type
	if reportType == "" {
		reportType = "other"
	}
	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	var hashedKey string
	if input.IdempotencyKey != "" {
		hashedKey = hashKey(input.IdempotencyKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if hashedKey != "" {
		if id, ok := s.byKey[hashedKey]; ok {
			existing := *s.reports[id]
			return &existing, nil
		}
	}

	report := &models.Report{
		ID:             uuid.NewString(),
		EventID:        input.EventID,
		ZoneID:         input.ZoneID,
		Type:           reportType,
		Message:        input.Message,
		Attachments:    attachments,
		IdempotencyKey: hashedKey,
		CreatedAt:      s.now(),
	}
	s.reports[report.ID] = report
	s.byEvent[report.EventID] = append(s.byEvent[report.EventID], report.ID)
	if hashedKey != "" {
		s.byKey[hashedKey] = report.ID
	}

	s.router.Publish(report.EventID, models.ChannelReportNew, map[string]interface{}{
		"id":        report.ID,
		"message":   report.Message,
		"type":      report.Type,
		"createdAt": report.CreatedAt,
	})

	log.Info().
		Str("event_id", report.EventID).
		Str("report_id", report.ID).
		Str("type", report.Type).
		Msg("Report received")

	copied := *report
	return &copied, nil
}

// List returns an event's reports, newest first
func (s *Service) List(eventID string) []models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byEvent[eventID]
	out := make([]models.Report, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, *s.reports[ids[i]])
	}
	return out
}

func hashKey(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
