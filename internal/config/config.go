package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	Port        int
	LogLevel    string

	// Auth (identity is verified upstream; we only decode the claims)
	JWTSecret string

	// Spatial window
	WindowTTL        time.Duration // retention horizon for location pings
	DefaultWindowSec int           // default map query window
	DensityCellDeg   float64       // density grid cell edge, degrees

	// Alerting thresholds
	DetectionLowThreshold  int
	DetectionHighThreshold int
	AlertCooldown          time.Duration

	// ML predictor
	MLBaseURL          string
	InsightTimeout     time.Duration
	PredictionTimeout  time.Duration
	DefaultHorizonMin  int
	BreakerMaxFailures uint32
	BreakerOpenFor     time.Duration

	// Broadcast
	SubscriberBuffer int

	// NATS (durable alert/ping bus)
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	AlertsSubject      string
	PingsSubject       string

	// Redis (durable store collaborator)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		// Spatial window
		WindowTTL:        getEnvDuration("WINDOW_TTL", 900*time.Second),
		DefaultWindowSec: getEnvInt("WINDOW_SEC_DEFAULT", 300),
		DensityCellDeg:   getEnvFloat("DENSITY_CELL_DEG", 0.001),

		// Alerting
		DetectionLowThreshold:  getEnvInt("DETECTION_LOW_THRESHOLD", 30),
		DetectionHighThreshold: getEnvInt("DETECTION_HIGH_THRESHOLD", 60),
		AlertCooldown:          getEnvDuration("ALERT_COOLDOWN", 60*time.Second),

		// ML predictor
		MLBaseURL:          getEnv("ML_BASE", ""),
		InsightTimeout:     getEnvDuration("ML_INSIGHT_TIMEOUT", 1500*time.Millisecond),
		PredictionTimeout:  getEnvDuration("ML_PREDICTION_TIMEOUT", 2*time.Second),
		DefaultHorizonMin:  getEnvInt("ML_DEFAULT_HORIZON_MIN", 5),
		BreakerMaxFailures: uint32(getEnvInt("ML_BREAKER_MAX_FAILURES", 5)),
		BreakerOpenFor:     getEnvDuration("ML_BREAKER_OPEN_FOR", 15*time.Second),

		// Broadcast
		SubscriberBuffer: getEnvInt("SUBSCRIBER_BUFFER", 256),

		// NATS
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 5*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", 60),
		AlertsSubject:      getEnv("ALERTS_SUBJECT", "crowdwatch.alerts"),
		PingsSubject:       getEnv("PINGS_SUBJECT", "crowdwatch.pings"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
