package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/legalform-ci/legalform-api/internal/config"
	"github.com/legalform-ci/legalform-api/internal/domain"
	"github.com/legalform-ci/legalform-api/internal/handler"
	"github.com/legalform-ci/legalform-api/internal/infra/cache"
	"github.com/legalform-ci/legalform-api/internal/infra/observability"
	"github.com/legalform-ci/legalform-api/internal/infra/payment"
	"github.com/legalform-ci/legalform-api/internal/infra/resilience"
	"github.com/legalform-ci/legalform-api/internal/infra/supabase"
	"github.com/legalform-ci/legalform-api/internal/service"
	trackingdomain "github.com/legalform-ci/legalform-api/internal/tracking/domain"
	trackingservice "github.com/legalform-ci/legalform-api/internal/tracking/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("capital_city", cfg.CapitalCity),
		zap.Int("tracking_max_attempts", cfg.TrackingMaxAttempts),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "legalform-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	statsCache := cache.New[*domain.DashboardStats](cfg.CacheTTL)
	companiesCache := cache.New[[]domain.CreatedCompany](cfg.CacheTTL)
	testimonialsCache := cache.New[[]domain.Testimonial](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	gateway := payment.NewGatewayClient(httpClient, cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayReturnURL, cb, resilienceCfg)

	// --- Services ---
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)
	paySvc := service.NewPaymentService(store, store, gateway, metrics, logger)
	intakeSvc := service.NewIntakeService(store, paySvc, domain.Tariffs{
		CapitalCity:    cfg.CapitalCity,
		CapitalTariff:  cfg.CapitalTariff,
		InteriorTariff: cfg.InteriorTariff,
	}, metrics, logger)
	reqSvc := service.NewRequestService(store, store, metrics, logger)
	exchSvc := service.NewExchangeService(store, store, store, cfg.DocumentsBucket, logger)
	adminSvc := service.NewAdminService(store, store, statsCache, metrics, logger)
	showSvc := service.NewShowcaseService(store, companiesCache, testimonialsCache, logger)
	trackSvc := trackingservice.NewTrackingService(store, store, trackingdomain.Limits{
		MaxAttempts: cfg.TrackingMaxAttempts,
		Window:      cfg.TrackingWindow,
		Cooldown:    cfg.TrackingCooldown,
	}, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Auth:     authSvc,
		Intake:   intakeSvc,
		Requests: reqSvc,
		Exchange: exchSvc,
		Payments: paySvc,
		Admin:    adminSvc,
		Showcase: showSvc,
		Tracking: trackSvc,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
