package main

import (
	"context"

	"github.com/angelmondragon/pharmacy-backend/internal/notifications"
	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/mailer"
	"github.com/angelmondragon/pharmacy-backend/pkg/metrics"
	"github.com/angelmondragon/pharmacy-backend/pkg/pubsub"
)

// buildNotifier picks the notification transport: emails are either rendered
// and sent in-process, or queued on Pub/Sub for cmd/notifier.
func buildNotifier(ctx context.Context, cfg *config.Config, logg *logger.Logger, m *metrics.NotificationMetrics) (notifications.Notifier, func() error, error) {
	noop := func() error { return nil }

	var transport notifications.Transport
	closer := noop
	if cfg.Notifications.UsesPubSub() {
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, noop, err
		}
		publisher := client.NotificationPublisher()
		pt, err := notifications.NewPubSubTransport(publisher)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		transport = pt
		closer = func() error {
			publisher.Stop()
			return client.Close()
		}
	} else {
		renderer, err := notifications.NewRenderer()
		if err != nil {
			return nil, noop, err
		}
		it, err := notifications.NewInlineTransport(renderer, mailer.New(cfg.Email, logg))
		if err != nil {
			return nil, noop, err
		}
		transport = it
	}

	dispatcher, err := notifications.NewDispatcher(transport, logg, m, cfg.Notifications.SendTimeout)
	if err != nil {
		_ = closer()
		return nil, noop, err
	}
	return dispatcher, closer, nil
}
