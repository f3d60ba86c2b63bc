// Package prediction wraps the external ML risk service. Callers always
// get a structurally valid result: live when the predictor answers,
// degraded when it fails but a prior result exists, unavailable otherwise.
// No predictor failure ever surfaces as an error.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/config"
	"crowdwatch-go/internal/metrics"
	"crowdwatch-go/internal/models"
)

const maxResponseBytes = 1 << 20

type insightResponse struct {
	RiskScore      float64  `json:"riskScore"`
	Recommendation string   `json:"recommendation"`
	Confidence     float64  `json:"confidence"`
	Factors        []string `json:"factors"`
}

type predictionResponse struct {
	Predictions []models.ZonePrediction `json:"predictions"`
}

// Service calls the predictor with bounded timeouts behind a circuit
// breaker and keeps last-known-good results for fallback
type Service struct {
	cfg     *config.Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	now     func() time.Time

	mu             sync.RWMutex
	lastInsight    map[string]models.Insight
	lastPrediction map[string]models.PredictionResult
}

// NewService creates the prediction client
func NewService(cfg *config.Config) *Service {
	return NewServiceWithClock(cfg, time.Now)
}

// NewServiceWithClock creates the prediction client with an injectable clock
func NewServiceWithClock(cfg *config.Config, now func() time.Time) *Service {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "ml-predictor",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Predictor circuit breaker state change")
		},
	})

	return &Service{
		cfg:            cfg,
		client:         &http.Client{},
		breaker:        breaker,
		now:            now,
		lastInsight:    make(map[string]models.Insight),
		lastPrediction: make(map[string]models.PredictionResult),
	}
}

// Insights returns the current-state risk summary for an event
func (s *Service) Insights(ctx context.Context, eventID string, features map[string]interface{}) models.Insight {
	payload := map[string]interface{}{"eventId": eventID}
	for k, v := range features {
		payload[k] = v
	}

	data, err := s.call(ctx, "/insights", payload, s.cfg.InsightTimeout)
	if err == nil {
		var resp insightResponse
		if err = json.Unmarshal(data, &resp); err == nil {
			insight := models.Insight{
				EventID:        eventID,
				RiskScore:      resp.RiskScore,
				Recommendation: resp.Recommendation,
				Confidence:     resp.Confidence,
				Factors:        resp.Factors,
				GeneratedAt:    s.now(),
				Freshness:      models.FreshnessLive,
			}
			if insight.Factors == nil {
				insight.Factors = []string{}
			}
			s.mu.Lock()
			s.lastInsight[eventID] = insight
			s.mu.Unlock()
			metrics.PredictorCalls.WithLabelValues("insights", string(models.FreshnessLive)).Inc()
			return insight
		}
	}

	s.mu.RLock()
	last, ok := s.lastInsight[eventID]
	s.mu.RUnlock()
	if ok {
		// The stored copy keeps its live tag; staleness is informational
		// and applies only to what the caller sees.
		last.Freshness = models.FreshnessDegraded
		metrics.PredictorCalls.WithLabelValues("insights", string(models.FreshnessDegraded)).Inc()
		log.Warn().Err(err).Str("event_id", eventID).Msg("Predictor unavailable, serving last known insight")
		return last
	}

	metrics.PredictorCalls.WithLabelValues("insights", string(models.FreshnessUnavailable)).Inc()
	log.Warn().Err(err).Str("event_id", eventID).Msg("Predictor unavailable, no prior insight")
	return models.Insight{
		EventID:        eventID,
		RiskScore:      0,
		Recommendation: "Insufficient data",
		Confidence:     0,
		Factors:        []string{},
		GeneratedAt:    s.now(),
		Freshness:      models.FreshnessUnavailable,
	}
}

// Predictions returns the forward-looking risk picture for an event at the
// given horizon
func (s *Service) Predictions(ctx context.Context, eventID string, horizonMinutes int, features map[string]interface{}) models.PredictionResult {
	if horizonMinutes <= 0 {
		horizonMinutes = s.cfg.DefaultHorizonMin
	}
	payload := map[string]interface{}{
		"eventId":        eventID,
		"horizonMinutes": horizonMinutes,
		"features":       features,
	}
	cacheKey := fmt.Sprintf("%s:%d", eventID, horizonMinutes)

	data, err := s.call(ctx, "/predictions", payload, s.cfg.PredictionTimeout)
	if err == nil {
		var resp predictionResponse
		if err = json.Unmarshal(data, &resp); err == nil {
			result := models.PredictionResult{
				EventID:        eventID,
				HorizonMinutes: horizonMinutes,
				Predictions:    resp.Predictions,
				GeneratedAt:    s.now(),
				Freshness:      models.FreshnessLive,
			}
			if result.Predictions == nil {
				result.Predictions = []models.ZonePrediction{}
			}
			s.mu.Lock()
			s.lastPrediction[cacheKey] = result
			s.mu.Unlock()
			metrics.PredictorCalls.WithLabelValues("predictions", string(models.FreshnessLive)).Inc()
			return result
		}
	}

	s.mu.RLock()
	last, ok := s.lastPrediction[cacheKey]
	s.mu.RUnlock()
	if ok {
		last.Freshness = models.FreshnessDegraded
		metrics.PredictorCalls.WithLabelValues("predictions", string(models.FreshnessDegraded)).Inc()
		log.Warn().Err(err).Str("event_id", eventID).Int("horizon_min", horizonMinutes).
			Msg("Predictor unavailable, serving last known prediction")
		return last
	}

	metrics.PredictorCalls.WithLabelValues("predictions", string(models.FreshnessUnavailable)).Inc()
	log.Warn().Err(err).Str("event_id", eventID).Int("horizon_min", horizonMinutes).
		Msg("Predictor unavailable, no prior prediction")
	return models.PredictionResult{
		EventID:        eventID,
		HorizonMinutes: horizonMinutes,
		Predictions:    []models.ZonePrediction{},
		GeneratedAt:    s.now(),
		Freshness:      models.FreshnessUnavailable,
	}
}

// call posts to the predictor through the circuit breaker with a bounded
// timeout. The caller's event locks are never held across this I/O.
func (s *Service) call(ctx context.Context, path string, payload interface{}, timeout time.Duration) ([]byte, error) {
	if s.cfg.MLBaseURL == "" {
		return nil, apperr.New(apperr.CodeUpstreamUnavailable, "predictor base URL not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return s.breaker.Execute(func() ([]byte, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, s.cfg.MLBaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := s.client.Do(req)
		metrics.PredictorLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, apperr.Newf(apperr.CodeUpstreamUnavailable, "predictor returned %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	})
}
