package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinemax/internal/config"
	"github.com/iliyamo/cinemax/internal/database"
	"github.com/iliyamo/cinemax/internal/handler"
	"github.com/iliyamo/cinemax/internal/logger"
	"github.com/iliyamo/cinemax/internal/middleware"
	"github.com/iliyamo/cinemax/internal/queue"
	"github.com/iliyamo/cinemax/internal/repository"
	"github.com/iliyamo/cinemax/internal/router"
	"github.com/iliyamo/cinemax/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(ctx, db); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}
	if cfg.Seed.Enabled {
		if err := database.Seed(ctx, db, cfg.Seed, cfg.BcryptCost, zl); err != nil {
			zl.Fatal("seed", zap.Error(err))
		}
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	movies := repository.NewMovieRepo(db)
	schedules := repository.NewScheduleRepo(db)
	theatres := repository.NewTheatreRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	seats := repository.NewSeatRepo(db)
	reservations := repository.NewReservationRepo(db)

	if n, err := sessions.DeleteExpired(ctx, time.Now().UTC()); err != nil {
		zl.Warn("purge expired sessions", zap.Error(err))
	} else if n > 0 {
		zl.Info("expired sessions purged", zap.Int64("count", n))
	}

	// Redis is optional: without it the limiter and the cache pass through.
	var rdb *redis.Client
	if c, err := config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
		zl.Warn("redis unavailable, rate limiting and caching disabled", zap.Error(err))
	} else {
		rdb = c
		defer func() { _ = rdb.Close() }()
	}

	var events service.EventPublisher = queue.LogPublisher{Log: zl}
	if cfg.AMQPURL != "" {
		events = queue.NewPublisher(cfg.AMQPURL, zl)
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.BookingLogDir, zl)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("booking consumer stopped", zap.Error(err))
			}
		}()
	}

	accounts := service.NewAccountService(users, sessions, cfg.SessionSecret,
		time.Duration(cfg.SessionTTLMin)*time.Minute, cfg.BcryptCost, zl)
	catalog := service.NewCatalogService(movies, schedules, cfg.Pricing, zl)
	registry := service.NewRegistryService(showtimes, theatres, seats, movies, zl)
	bookings := service.NewBookingService(reservations, cfg.Pricing, events, zl)

	cacheCfg := config.LoadCacheConfig()

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLog(zl))
	e.Use(middleware.NewRedisCache(cacheCfg, rdb, zl))

	guards := router.NewGuards(accounts, config.LoadRateLimitConfig(), rdb, zl)
	router.RegisterRoutes(e, db)
	api := router.API(e, guards)
	router.RegisterAuth(api, handler.NewAuthHandler(accounts, cfg.CookieSecure, zl), guards)
	router.RegisterPublic(api, handler.NewPublicHandler(catalog, registry, zl))
	router.RegisterCustomer(api, handler.NewBookingHandler(bookings, zl), guards)
	router.RegisterAdmin(api, handler.NewAdminHandler(catalog, registry,
		middleware.NewCacheInvalidator(cacheCfg, rdb, zl), zl), guards)

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
}
