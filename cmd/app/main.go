package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nkraemer/slotgrab/config"
	"github.com/nkraemer/slotgrab/internal/bootstrap"
	"github.com/nkraemer/slotgrab/internal/cache"
	"github.com/nkraemer/slotgrab/internal/kafka"
	"github.com/nkraemer/slotgrab/internal/queue"
	"github.com/nkraemer/slotgrab/internal/repository"
	"github.com/nkraemer/slotgrab/internal/scheduler"
	"github.com/nkraemer/slotgrab/internal/service/booking"
	"github.com/nkraemer/slotgrab/internal/service/venues"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	runner := queue.NewRunner(redisOpt, cfg.Acquisition.Queue, time.Duration(cfg.Acquisition.RetentionHours)*time.Hour, logger)
	defer runner.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Worker.VenuesCacheTTL)*time.Second)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()

	venueRepo := repository.NewVenueRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	sched := scheduler.New(scheduler.SystemClock(), runner)
	bookingService := booking.NewBookingService(
		bookingRepo,
		venueRepo,
		ticketRepo,
		sched,
		runner,
		producer,
		cfg.Kafka.BookingEventsTopic,
		logger,
	)
	venueService := venues.NewVenueService(venueRepo, redisCache)

	router := bootstrap.NewRouter(bookingService, venueService)
	if err := bootstrap.Run(ctx, cfg, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
