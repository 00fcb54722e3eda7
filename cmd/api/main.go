package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/pharmacy-backend/api/routes"
	"github.com/angelmondragon/pharmacy-backend/internal/address"
	"github.com/angelmondragon/pharmacy-backend/internal/auth"
	"github.com/angelmondragon/pharmacy-backend/internal/cart"
	"github.com/angelmondragon/pharmacy-backend/internal/categories"
	"github.com/angelmondragon/pharmacy-backend/internal/checkout"
	"github.com/angelmondragon/pharmacy-backend/internal/orders"
	product "github.com/angelmondragon/pharmacy-backend/internal/products"
	"github.com/angelmondragon/pharmacy-backend/internal/users"
	"github.com/angelmondragon/pharmacy-backend/pkg/auth/session"
	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/db"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/metrics"
	"github.com/angelmondragon/pharmacy-backend/pkg/migrate"
	"github.com/angelmondragon/pharmacy-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	notifier, closeNotifier, err := buildNotifier(ctx, cfg, logg, m.Notifications)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeNotifier()) }()

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	categoryRepo := categories.NewRepository(gormDB)
	productRepo := product.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)

	var svc routes.Services

	if svc.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	}); err != nil {
		return err
	}
	if svc.Register, err = auth.NewRegisterService(auth.RegisterServiceParams{
		Tx:             dbClient,
		Users:          userRepo,
		Carts:          cartRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Notifier:       notifier,
		Logger:         logg,
	}); err != nil {
		return err
	}
	if svc.PasswordReset, err = auth.NewPasswordResetService(auth.PasswordResetParams{
		Store:          redisClient,
		Users:          userRepo,
		Notifier:       notifier,
		Logger:         logg,
		ResetConfig:    cfg.PasswordReset,
		PasswordConfig: cfg.Password,
		FrontendURL:    cfg.Email.FrontendURL,
	}); err != nil {
		return err
	}
	if svc.Categories, err = categories.NewService(categoryRepo, dbClient); err != nil {
		return err
	}
	if svc.Products, err = product.NewService(productRepo, categoryRepo, dbClient); err != nil {
		return err
	}
	if svc.Cart, err = cart.NewService(cartRepo, productRepo, dbClient); err != nil {
		return err
	}
	if svc.Addresses, err = address.NewService(addressRepo, dbClient); err != nil {
		return err
	}
	if svc.Orders, err = orders.NewService(orders.ServiceParams{
		Repo:     orderRepo,
		Products: productRepo,
		Tx:       dbClient,
		Notifier: notifier,
		Metrics:  m.Orders,
		Logger:   logg,
	}); err != nil {
		return err
	}
	if svc.Checkout, err = checkout.NewService(checkout.ServiceParams{
		Carts:     cartRepo,
		Products:  productRepo,
		Orders:    orderRepo,
		Addresses: addressRepo,
		Tx:        dbClient,
		Notifier:  notifier,
		Metrics:   m.Checkout,
		Logger:    logg,
	}); err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"transport": cfg.Notifications.Transport,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, m, registry, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
