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
	"github.com/nkraemer/slotgrab/internal/acquisition"
	"github.com/nkraemer/slotgrab/internal/kafka"
	"github.com/nkraemer/slotgrab/internal/notify"
	"github.com/nkraemer/slotgrab/internal/queue"
	"github.com/nkraemer/slotgrab/internal/repository"
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

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()

	venueRepo := repository.NewVenueRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	acquirer := acquisition.NewSiteAcquirer(acquisition.SiteCredentials{
		Email:    cfg.Acquisition.SiteEmail,
		Password: cfg.Acquisition.SitePassword,
		Voucher:  cfg.Acquisition.Voucher,
	}, time.Duration(cfg.Acquisition.TimeoutSeconds)*time.Second)

	machine := acquisition.NewStateMachine(
		bookingRepo,
		venueRepo,
		ticketRepo,
		acquirer,
		producer,
		cfg.Kafka.BookingEventsTopic,
		logger,
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic, logger)
	defer consumer.Close()

	notifier := notify.NewNotifier(logger)

	go func() {
		if err := consumer.Consume(ctx, notifier.Send); err != nil {
			logger.Error("consumer stopped", "error", err)
		}
	}()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	srv := queue.NewServer(redisOpt, cfg.Acquisition.Queue, cfg.Worker.Concurrency, logger)
	mux := queue.NewMux(func(ctx context.Context, bookingID, userID int64) error {
		_, err := machine.Attempt(ctx, bookingID, userID)
		return err
	})

	if err := srv.Start(mux); err != nil {
		log.Fatalf("start task server: %v", err)
	}

	<-ctx.Done()
	logger.Info("shutting down worker")
	srv.Shutdown()
}
