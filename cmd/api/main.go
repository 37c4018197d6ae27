package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ilgner17/reservo-scheduler/internal/api/router"
	"github.com/ilgner17/reservo-scheduler/internal/bookings"
	appconfig "github.com/ilgner17/reservo-scheduler/internal/config"
	"github.com/ilgner17/reservo-scheduler/internal/events"
	"github.com/ilgner17/reservo-scheduler/internal/notify"
	"github.com/ilgner17/reservo-scheduler/internal/observability/metrics"
	"github.com/ilgner17/reservo-scheduler/internal/payments"
	"github.com/ilgner17/reservo-scheduler/internal/profiles"
	"github.com/ilgner17/reservo-scheduler/internal/services"
	"github.com/ilgner17/reservo-scheduler/internal/subscriptions"
	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reservo scheduler API", "env", cfg.Env, "port", cfg.Port)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres unreachable", "error", err)
		os.Exit(1)
	}

	// Metrics registry with process and Go runtime collectors.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)
	billingMetrics := metrics.NewBillingMetrics(registry)
	notifyMetrics := metrics.NewNotifyMetrics(registry)

	// Optional redis cache for public pages.
	var pageCache *profiles.PageCache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, running without page cache", "error", err)
		} else {
			pageCache = profiles.NewPageCache(redisClient, 0)
			logger.Info("public page cache enabled", "addr", cfg.RedisAddr)
		}
	}

	// Repositories.
	profileRepo := profiles.NewRepository(pool)
	serviceRepo := services.NewRepository(pool)
	bookingRepo := bookings.NewRepository(pool)
	paymentRepo := payments.NewRepository(pool)
	subscriptionRepo := subscriptions.NewRepository(pool)
	processedStore := events.NewProcessedStore(pool)

	// Notification dispatch.
	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var emails notify.EmailSender
	if emailSender != nil {
		emails = emailSender
	}
	dispatcher := notify.NewDispatcher(
		notify.Config{WebhookURL: cfg.NotifyWebhookURL, Timeout: cfg.NotifyTimeout},
		bookingRepo, profileRepo, emails, notifyMetrics, logger,
	)

	// Domain services.
	bookingService := bookings.NewService(bookingRepo, profileRepo, serviceRepo, dispatcher, bookingMetrics, logger)
	reconciler := subscriptions.NewReconciler(subscriptions.Config{
		PremiumPriceCents:     cfg.PremiumPriceCents,
		ProfessionalPlanLimit: cfg.ProfessionalPlanLimit,
		FreePlanLimit:         cfg.FreePlanLimit,
		Period:                cfg.SubscriptionPeriod,
	}, subscriptionRepo, profileRepo, logger)

	// Handlers.
	routerCfg := &router.Config{
		Logger:               logger,
		ProfilesHandler:      profiles.NewHandler(profileRepo, serviceRepo, pageCache, cfg.FreePlanLimit, logger),
		ServicesHandler:      services.NewHandler(serviceRepo, profiles.NewPageInvalidator(profileRepo, pageCache), logger),
		BookingsHandler:      bookings.NewHandler(bookingService, bookingRepo, logger),
		PaymentsHandler:      payments.NewHandler(paymentRepo, logger),
		SubscriptionsHandler: subscriptions.NewHandler(subscriptionRepo, logger),
		BillingWebhook:       subscriptions.NewWebhookHandler(cfg.BillingWebhookSecret, reconciler, processedStore, billingMetrics, logger),
		NotifyHandler:        notify.NewHandler(dispatcher, logger),
		MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AuthJWTSecret:        cfg.AuthJWTSecret,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		PublicRatePerSecond:  cfg.PublicRatePerSecond,
		PublicRateBurst:      cfg.PublicRateBurst,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
