package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"crowdwatch-go/internal/config"
	"crowdwatch-go/internal/models"
	"crowdwatch-go/internal/services/actions"
	"crowdwatch-go/internal/services/alerting"
	"crowdwatch-go/internal/services/broadcast"
	"crowdwatch-go/internal/services/ingest"
	"crowdwatch-go/internal/services/messaging"
	"crowdwatch-go/internal/services/prediction"
	"crowdwatch-go/internal/services/reports"
	"crowdwatch-go/internal/services/storage"
	"crowdwatch-go/internal/spatial"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config     *config.Config
	Window     *spatial.Window
	Router     *broadcast.Router
	Messaging  *messaging.Service
	Storage    *storage.Service
	Alerts     *alerting.Service
	Prediction *prediction.Service
	Ingest     *ingest.Service
	Reports    *reports.Service
	Actions    *actions.Service
}

// NewServiceContainer wires the pipeline. The NATS bus and Redis store
// are best-effort collaborators: if either is unreachable at startup the
// core pipeline still runs and their hand-offs are skipped.
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	router := broadcast.NewRouter(cfg.SubscriberBuffer)
	window := spatial.NewWindow(cfg.WindowTTL)

	var publisher models.MessagePublisher
	msgSvc, err := messaging.NewService(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("NATS unavailable, continuing without durable bus")
	} else {
		publisher = msgSvc
	}

	var appendStore *storage.Service
	appendStore, err = storage.NewService(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without durable store")
		appendStore = nil
	}

	alertSvc := alerting.NewService(cfg, publisher, appenderOrNil(appendStore))

	return &ServiceContainer{
		Config:     cfg,
		Window:     window,
		Router:     router,
		Messaging:  msgSvc,
		Storage:    appendStore,
		Alerts:     alertSvc,
		Prediction: prediction.NewService(cfg),
		Ingest:     ingest.NewService(cfg, window, alertSvc, router, pingAppenderOrNil(appendStore), publisher),
		Reports:    reports.NewService(router),
		Actions:    actions.NewService(router),
	}, nil
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			return err
		}
	}
	if sc.Storage != nil {
		if err := sc.Storage.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// A nil *storage.Service stuffed into an interface is not a nil
// interface; these helpers keep the nil checks in the consumers honest.
func appenderOrNil(s *storage.Service) alerting.Appender {
	if s == nil {
		return nil
	}
	return s
}

func pingAppenderOrNil(s *storage.Service) ingest.PingAppender {
	if s == nil {
		return nil
	}
	return s
}
