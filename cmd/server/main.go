package main // venue calendar API server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/venue-calendar/internal/config"
	"github.com/iliyamo/venue-calendar/internal/database"
	"github.com/iliyamo/venue-calendar/internal/handler"
	"github.com/iliyamo/venue-calendar/internal/middleware"
	"github.com/iliyamo/venue-calendar/internal/queue"
	"github.com/iliyamo/venue-calendar/internal/repository"
	"github.com/iliyamo/venue-calendar/internal/router"
	"github.com/iliyamo/venue-calendar/internal/service"
)

func main() {
	logger := log.New("server")
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("read .env: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if cfg.DBMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			logger.Fatalf("migrate: %v", err)
		}
	}

	// Redis is optional; without it the limiter and the cache pass through.
	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		logger.Warnf("redis unavailable, rate limiting and caching disabled: %v", err)
	} else {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	var events handler.EventPublisher
	if cfg.AMQPURL != "" {
		pub := service.NewPublisher(cfg.AMQPURL)
		defer pub.Close()
		events = pub
	} else {
		logger.Warn("RABBITMQ_URL not set, availability events are not published")
	}

	availability := handler.NewAvailabilityHandler(
		repository.NewAvailabilityRepo(db),
		repository.NewBookingRepo(db),
		repository.NewVenueRepo(db),
		events,
		cache,
	)
	auth := handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db))

	e := router.New(router.Deps{
		JWTSecret:    cfg.JWTSecret,
		Auth:         auth,
		Availability: availability,
		Health:       handler.Health(db),
		RateLimit:    middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:        cache,
	})
	if cfg.Env == "dev" {
		e.Logger.SetLevel(log.DEBUG)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AMQPURL != "" && cfg.ConsumerEnabled {
		go func() {
			if err := queue.NewConsumer(cfg.AMQPURL, cfg.AuditLogPath).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("audit consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
