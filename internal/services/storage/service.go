// Package storage is the durable-store collaborator: append-only Redis
// writes of alerts and location pings. At-least-once semantics; pings
// expire with the same TTL as the in-memory window.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"crowdwatch-go/internal/config"
	"crowdwatch-go/internal/models"
)

const (
	alertKeyPrefix = "alerts:"
	pingKeyPrefix  = "pings:"

	// maxPingsPerEvent caps the durable ping list so a hot event cannot
	// grow without bound between TTL refreshes
	maxPingsPerEvent = 100_000
)

// Service wraps the Redis connection
type Service struct {
	client  *redis.Client
	pingTTL time.Duration
}

// NewService connects to Redis and verifies the connection
func NewService(cfg *config.Config) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Str("addr", cfg.RedisAddr).Msg("Redis connection established")

	return &Service{client: client, pingTTL: cfg.WindowTTL}, nil
}

// AppendAlert appends an alert to its event's durable log. Alerts are
// retained indefinitely; resolution state lives with the rule engine.
func (s *Service) AppendAlert(ctx context.Context, alert models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	return s.client.RPush(ctx, alertKeyPrefix+alert.EventID, data).Err()
}

// AppendPing appends a ping to its event's durable log and refreshes the
// log's TTL so it expires alongside the in-memory window
func (s *Service) AppendPing(ctx context.Context, ping models.LocationPing) error {
	data, err := json.Marshal(ping)
	if err != nil {
		return fmt.Errorf("failed to marshal ping: %w", err)
	}

	key := pingKeyPrefix + ping.EventID
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -maxPingsPerEvent, -1)
	pipe.Expire(ctx, key, s.pingTTL)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to append ping: %w", err)
	}
	return nil
}

// RecentPings reads back the durable ping log for an event, oldest first
func (s *Service) RecentPings(ctx context.Context, eventID string, count int64) ([]models.LocationPing, error) {
	data, err := s.client.LRange(ctx, pingKeyPrefix+eventID, -count, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pings: %w", err)
	}

	pings := make([]models.LocationPing, 0, len(data))
	for _, d := range data {
		var p models.LocationPing
		if err := json.Unmarshal([]byte(d), &p); err != nil {
			continue
		}
		pings = append(pings, p)
	}
	return pings, nil
}

// Ping verifies the connection
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Shutdown closes the connection
func (s *Service) Shutdown(ctx context.Context) error {
	return s.client.Close()
}
