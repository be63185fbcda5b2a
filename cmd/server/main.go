package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/campus-marketplace/internal/booking"
	"github.com/iliyamo/campus-marketplace/internal/config"
	"github.com/iliyamo/campus-marketplace/internal/database"
	"github.com/iliyamo/campus-marketplace/internal/handler"
	"github.com/iliyamo/campus-marketplace/internal/metrics"
	"github.com/iliyamo/campus-marketplace/internal/middleware"
	"github.com/iliyamo/campus-marketplace/internal/queue"
	"github.com/iliyamo/campus-marketplace/internal/repository"
	"github.com/iliyamo/campus-marketplace/internal/revenue"
	"github.com/iliyamo/campus-marketplace/internal/router"
)

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "campus-marketplace").Logger()
}

func main() {
	config.LoadDotEnv() // .env is optional
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := newLogger(cfg)

	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.DB.Driver); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
		logger.Info().Str("driver", cfg.DB.Driver).Msg("schema ready")
	}

	// nil when disabled or unreachable; middlewares degrade on their own
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	bookings := repository.NewBookingRepo(db)
	listings := repository.NewListingRepo(db)
	users := repository.NewUserRepo(db)

	ledger := booking.NewLedger(bookings, listings, users, &logger)
	agg := revenue.NewAggregator(bookings, listings, users, &logger)

	if cfg.MetricsEnabled {
		metrics.Register()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(&logger))

	router.RegisterRoutes(e, db, rdb, cfg.MetricsEnabled)
	router.RegisterStudent(e,
		handler.NewStudentBookingHandler(ledger),
		cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, &logger),
		middleware.NewIdempotency(config.LoadIdempotencyConfig(), rdb, &logger),
	)
	router.RegisterOwner(e,
		handler.NewOwnerBookingHandler(ledger),
		handler.NewRevenueHandler(agg, &logger),
		cfg.JWTSecret,
	)

	if cfg.Queue.ConsumerEnabled && cfg.Queue.URL != "" {
		consumer := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.PaymentQueue, ledger, &logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("payment consumer stopped")
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("stopped")
}
