// Package actions records operator commands and announces them to the
// event's subscribers.
package actions

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/models"
)

// Input is the raw action payload
type Input struct {
	EventID          string `json:"eventId"`
	ZoneID           string `json:"zoneId"`
	Command          string `json:"command"`
	Notes            string `json:"notes"`
	RelatesToAlertID string `json:"relatesToAlertId"`
}

// Service stores actions in memory for the process lifetime
type Service struct {
	router models.Broadcaster
	now    func() time.Time

	mu      sync.RWMutex
	actions map[string][]models.Action
}

func NewService(router models.Broadcaster) *Service {
	return NewServiceWithClock(router, time.Now)
}

func NewServiceWithClock(router models.Broadcaster, now func() time.Time) *Service {
	return &Service{
		router:  router,
		now:     now,
		actions: make(map[string][]models.Action),
	}
}

// Create records an operator command and broadcasts action:created
func (s *Service) Create(input Input, createdBy string) (*models.Action, error) {
	if input.EventID == "" || input.Command == "" {
		return nil, apperr.New(apperr.CodeInvalidPayload, "eventId and command required")
	}

	action := models.Action{
		ID:               uuid.NewString(),
		EventID:          input.EventID,
		ZoneID:           input.ZoneID,
		Command:          input.Command,
		Notes:            input.Notes,
		RelatesToAlertID: input.RelatesToAlertID,
		CreatedBy:        createdBy,
		DeliveredVia:     []string{"socket"},
		CreatedAt:        s.now(),
	}

	s.mu.Lock()
	s.actions[action.EventID] = append(s.actions[action.EventID], action)
	s.mu.Unlock()

	s.router.Publish(action.EventID, models.ChannelActionCreated, action)

	log.Info().
		Str("event_id", action.EventID).
		Str("action_id", action.ID).
		Str("command", action.Command).
		Msg("Action created")

	return &action, nil
}

// List returns an event's actions, newest first
func (s *Service) List(eventID string) []models.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.actions[eventID]
	out := make([]models.Action, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out
}
