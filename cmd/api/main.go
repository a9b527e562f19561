package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"verkstad/internal/api"
	"verkstad/internal/config"
	"verkstad/internal/database"
	"verkstad/internal/domain"
	"verkstad/internal/events"
	"verkstad/internal/logging"
	"verkstad/internal/matching"
	"verkstad/internal/metrics"
	"verkstad/internal/ranking"
	"verkstad/internal/repository"
	"verkstad/internal/service"
	"verkstad/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := buildListingCache(cfg, redisClient, &logger)

	eventBus := events.NewEventBus()
	httpServer := buildHTTPServer(cfg, db, cache, eventBus, &logger)
	sweeper := worker.NewExpirySweeper(db, eventBus, cfg.Worker.SweepIntervalMinutes, worker.RetryPolicy{}, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)
	go sweeper.Run(ctx)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// buildListingCache предпочитает Redis с памятью как резервом
func buildListingCache(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.ListingCache {
	ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 60 * time.Second
	}

	memory := repository.NewMemoryListingCache(ttl)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverListingCache(repository.NewRedisListingCache(redisClient, ttl), memory, logger)
}

func buildHTTPServer(cfg *config.Config, db *database.DB, cache domain.ListingCache, eventBus *events.EventBus, logger *zerolog.Logger) *api.HTTPServer {
	ranker := ranking.NewRanker(cfg.Marketplace.MaxRankedOffers)
	matcher := matching.NewMatcher(cfg.Marketplace.DefaultRadiusKm)

	offers := service.NewOfferService(db, cache, eventBus, ranker, logger)
	requests := service.NewRequestService(db, matcher, eventBus, cfg.Marketplace.BiddingWindowHours, logger)
	bookings := service.NewBookingService(db, eventBus, cache, cfg.Marketplace.CommissionRate, logger)
	payouts := service.NewPayoutService(db, eventBus, cfg.Exports.Path, logger)

	return api.NewHTTPServer(cfg.API, offers, requests, bookings, payouts, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
