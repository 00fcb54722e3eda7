package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/pharmacy-backend/internal/notifications"
	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/mailer"
	"github.com/angelmondragon/pharmacy-backend/pkg/metrics"
	"github.com/angelmondragon/pharmacy-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notifier"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "notifier",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := psClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	renderer, err := notifications.NewRenderer()
	if err != nil {
		logg.Error(ctx, "failed to load email templates", err)
		os.Exit(1)
	}
	transport, err := notifications.NewInlineTransport(renderer, mailer.New(cfg.Email, logg))
	if err != nil {
		logg.Error(ctx, "failed to create email transport", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	consumer, err := notifications.NewConsumer(psClient.NotificationSubscriber(), transport, logg, m.Notifications)
	if err != nil {
		logg.Error(ctx, "failed to create notification consumer", err)
		os.Exit(1)
	}

	svc, err := NewService(ServiceParams{
		Logger:   logg,
		PubSub:   psClient,
		Consumer: consumer,
	})
	if err != nil {
		logg.Error(ctx, "failed to create notifier service", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "subscription", cfg.PubSub.NotificationSubscription), "starting notifier")
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notifier stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "notifier shutting down gracefully")
}
