package services

import (
	"context"

	"github.com/getmentor/mentorship-api/config"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/httpclient"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/getmentor/mentorship-api/pkg/trigger"
	"go.uber.org/zap"
)

// Notifier receives post-commit events. Implementations must not block the caller.
type Notifier interface {
	Notify(ctx context.Context, event models.Event)
}

// TriggerNotifier posts events to per-type webhook URLs
type TriggerNotifier struct {
	urls       map[models.EventType]string
	httpClient httpclient.Client
}

// NewTriggerNotifier creates a notifier from the configured trigger URLs
func NewTriggerNotifier(cfg *config.Config, httpClient httpclient.Client) *TriggerNotifier {
	return &TriggerNotifier{
		urls: map[models.EventType]string{
			models.EventRequestAccepted:  cfg.EventTriggers.RequestAcceptedTriggerURL,
			models.EventSessionScheduled: cfg.EventTriggers.SessionScheduledTriggerURL,
			models.EventRatingRecorded:   cfg.EventTriggers.RatingRecordedTriggerURL,
		},
		httpClient: httpClient,
	}
}

// Notify dispatches event asynchronously. Events without a URL are dropped.
func (n *TriggerNotifier) Notify(_ context.Context, event models.Event) {
	eventName := string(event.Type)
	url := n.urls[event.Type]
	if url == "" {
		metrics.NotificationsDispatched.WithLabelValues(eventName, "skipped").Inc()
		logger.Debug("No trigger configured for event", zap.String("event", eventName))
		return
	}

	trigger.PostAsync(url, event, n.httpClient, func(ok bool) {
		status := "success"
		if !ok {
			status = "failed"
		}
		metrics.NotificationsDispatched.WithLabelValues(eventName, status).Inc()
	})
}

// nopNotifier drops every event
type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.Event) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
