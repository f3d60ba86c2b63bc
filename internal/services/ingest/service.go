// Package ingest validates and normalizes incoming pings and detection
// batches, drives the spatial window and rule engine, and triggers
// broadcasts.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/config"
	"crowdwatch-go/internal/metrics"
	"crowdwatch-go/internal/models"
	"crowdwatch-go/internal/services/alerting"
	"crowdwatch-go/internal/spatial"
)

// PingAppender is the durable-store hand-off for accepted pings
type PingAppender interface {
	AppendPing(ctx context.Context, ping models.LocationPing) error
}

// PingInput is the raw device ping payload. Position fields are pointers
// so absent and zero coordinates can be told apart.
type PingInput struct {
	EventID  string     `json:"eventId"`
	Lat      *float64   `json:"lat"`
	Lng      *float64   `json:"lng"`
	Speed    *float64   `json:"speed"`
	Heading  *float64   `json:"heading"`
	Accuracy *float64   `json:"accuracy"`
	TS       *time.Time `json:"ts"`
}

// DetectionInput is the raw camera detection payload. Only the object
// count matters to the rule engine; the batch is not retained.
type DetectionInput struct {
	EventID  string            `json:"eventId"`
	CameraID string            `json:"cameraId"`
	ZoneID   string            `json:"zoneId"`
	TS       *time.Time        `json:"ts"`
	Objects  []json.RawMessage `json:"objects"`
}

// Service is the ingest gateway
type Service struct {
	cfg       *config.Config
	window    *spatial.Window
	alerts    *alerting.Service
	router    models.Broadcaster
	store     PingAppender
	publisher models.MessagePublisher
	now       func() time.Time
}

// NewService creates the gateway. store and publisher may be nil.
func NewService(cfg *config.Config, window *spatial.Window, alerts *alerting.Service, router models.Broadcaster, store PingAppender, publisher models.MessagePublisher) *Service {
	return NewServiceWithClock(cfg, window, alerts, router, store, publisher, time.Now)
}

// NewServiceWithClock creates the gateway with an injectable clock
func NewServiceWithClock(cfg *config.Config, window *spatial.Window, alerts *alerting.Service, router models.Broadcaster, store PingAppender, publisher models.MessagePublisher, now func() time.Time) *Service {
	return &Service{
		cfg:       cfg,
		window:    window,
		alerts:    alerts,
		router:    router,
		store:     store,
		publisher: publisher,
		now:       now,
	}
}

// IngestPing validates and records a device ping, then broadcasts a
// lightweight map:update carrying just the new point. Full grid
// recomputation only happens on explicit map queries.
func (s *Service) IngestPing(ctx context.Context, input PingInput) (models.LocationPing, error) {
	if input.EventID == "" || input.Lat == nil || input.Lng == nil {
		return models.LocationPing{}, apperr.New(apperr.CodeInvalidPayload, "eventId, lat, lng required")
	}

	capturedAt := s.now()
	if input.TS != nil {
		capturedAt = *input.TS
	}

	ping := models.LocationPing{
		EventID:    input.EventID,
		Lat:        *input.Lat,
		Lng:        *input.Lng,
		Speed:      input.Speed,
		Heading:    input.Heading,
		Accuracy:   input.Accuracy,
		Source:     "device",
		CapturedAt: capturedAt,
	}

	s.window.Record(ping)
	metrics.PingsIngested.Inc()

	s.router.Publish(ping.EventID, models.ChannelMapUpdate, models.MapUpdate{
		Points:    []models.MapPoint{{Lat: ping.Lat, Lng: ping.Lng, TS: ping.CapturedAt}},
		Density:   []models.GridCell{},
		UpdatedAt: s.now(),
		Source:    "live",
	})

	s.persist(ping)
	return ping, nil
}

// IngestDetections validates a camera batch, runs the rule engine, and
// broadcasts alert:new when a rule fires
func (s *Service) IngestDetections(ctx context.Context, input DetectionInput) (*models.Alert, error) {
	if input.EventID == "" || input.CameraID == "" || input.Objects == nil {
		return nil, apperr.New(apperr.CodeInvalidPayload, "eventId, cameraId, objects required")
	}

	alert := s.alerts.EvaluateDetections(input.EventID, input.ZoneID, input.CameraID, len(input.Objects))
	if alert == nil {
		return nil, nil
	}

	s.router.Publish(alert.EventID, models.ChannelAlertNew, models.AlertNew{
		ID:        alert.ID,
		Type:      alert.Type,
		Message:   alert.Message,
		Severity:  alert.Severity,
		Status:    alert.Status,
		CreatedAt: alert.CreatedAt,
	})
	return alert, nil
}

// MapSnapshot answers the map query surface: windowed, box-filtered points
// plus the density grid recomputed from them
func (s *Service) MapSnapshot(eventID, rawBBox string, windowSec int) (models.MapUpdate, error) {
	if eventID == "" {
		return models.MapUpdate{}, apperr.New(apperr.CodeMissingEvent, "eventId required")
	}
	box, err := spatial.ParseBBox(rawBBox)
	if err != nil {
		return models.MapUpdate{}, err
	}
	if windowSec <= 0 {
		windowSec = s.cfg.DefaultWindowSec
	}

	samples, err := s.window.Query(eventID, box, time.Duration(windowSec)*time.Second)
	if err != nil {
		return models.MapUpdate{}, err
	}

	points := make([]models.MapPoint, 0, len(samples))
	for _, p := range samples {
		points = append(points, models.MapPoint{Lat: p.Lat, Lng: p.Lng, TS: p.CapturedAt})
	}

	return models.MapUpdate{
		Points:    points,
		Density:   spatial.Aggregate(samples, s.cfg.DensityCellDeg),
		UpdatedAt: s.now(),
		Source:    "query",
	}, nil
}

// persist hands the ping to the durable bus and store, best effort
func (s *Service) persist(ping models.LocationPing) {
	if s.publisher != nil {
		if err := s.publisher.Publish(s.cfg.PingsSubject, ping); err != nil {
			log.Error().Err(err).Str("event_id", ping.EventID).Msg("Failed to publish ping to bus")
		}
	}
	if s.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.store.AppendPing(ctx, ping); err != nil {
				log.Error().Err(err).Str("event_id", ping.EventID).Msg("Failed to append ping to store")
			}
		}()
	}
}
