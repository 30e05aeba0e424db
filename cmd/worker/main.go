package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/sales440/ivy-ai-platform/internal/config"
	"github.com/sales440/ivy-ai-platform/internal/pkg/distlock"
	"github.com/sales440/ivy-ai-platform/internal/pkg/logger"
	"github.com/sales440/ivy-ai-platform/internal/render"
	"github.com/sales440/ivy-ai-platform/internal/repository/postgres"
	"github.com/sales440/ivy-ai-platform/internal/sender"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
	"github.com/sales440/ivy-ai-platform/internal/worker"
)

func main() {
	cfg, err := config.LoadFromEnv("config.yaml")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.RedactPII())

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.Ping(); err != nil {
		log.Fatalf("pinging database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("[Worker] Redis unavailable (%v), falling back to advisory locks", err)
			redisClient = nil
		}
	}

	campaignRepo := postgres.NewCampaignRepo(db)
	contactRepo := postgres.NewContactRepo(db)
	enrollmentRepo := postgres.NewEnrollmentRepo(db)
	ledgerRepo := postgres.NewLedgerRepo(db, cfg.Churn.WindowDays)

	var mailSender sequence.Sender
	if ses, err := sender.NewSESSender(ctx, cfg.SES); err != nil {
		log.Printf("[Worker] SES unavailable (%v), using dry-run sender", err)
		mailSender = sender.NewDrySender()
	} else {
		mailSender = ses
	}

	seq := sequence.NewService(
		enrollmentRepo, ledgerRepo, campaignRepo, contactRepo,
		render.NewEngine(), mailSender,
		sequence.WithInterSendDelay(time.Duration(cfg.Sequence.InterSendDelayMs)*time.Millisecond),
	)

	tick := time.Duration(cfg.Sequence.TickIntervalSeconds) * time.Second
	lock := distlock.New(redisClient, db, "sequence-scheduler", 2*tick)
	stallAfter := time.Duration(cfg.Sequence.StallAfterDays) * 24 * time.Hour

	scheduler := worker.NewSequenceScheduler(seq, enrollmentRepo, lock, tick, cfg.Sequence.BatchSize, stallAfter)
	scheduler.Start(ctx)
	log.Printf("[Worker] Sequence scheduler running (tick %s)", tick)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[Worker] Shutting down")
	cancel()
	scheduler.Stop()
}
