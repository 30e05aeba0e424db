package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/sales440/ivy-ai-platform/internal/api"
	"github.com/sales440/ivy-ai-platform/internal/config"
	"github.com/sales440/ivy-ai-platform/internal/pkg/logger"
	"github.com/sales440/ivy-ai-platform/internal/render"
	"github.com/sales440/ivy-ai-platform/internal/repository/postgres"
	"github.com/sales440/ivy-ai-platform/internal/scoring"
	"github.com/sales440/ivy-ai-platform/internal/sender"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
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

	ctx := context.Background()

	agentRepo := postgres.NewAgentRepo(db)
	campaignRepo := postgres.NewCampaignRepo(db)
	contactRepo := postgres.NewContactRepo(db)
	enrollmentRepo := postgres.NewEnrollmentRepo(db)
	ledgerRepo := postgres.NewLedgerRepo(db, cfg.Churn.WindowDays)

	var mailSender sequence.Sender
	if ses, err := sender.NewSESSender(ctx, cfg.SES); err != nil {
		log.Printf("[Server] SES unavailable (%v), using dry-run sender", err)
		mailSender = sender.NewDrySender()
	} else {
		mailSender = ses
	}

	seq := sequence.NewService(
		enrollmentRepo, ledgerRepo, campaignRepo, contactRepo,
		render.NewEngine(), mailSender,
		sequence.WithInterSendDelay(time.Duration(cfg.Sequence.InterSendDelayMs)*time.Millisecond),
	)

	recommender := scoring.NewRecommender(scoring.Weights{
		ConversionCeiling: cfg.Scoring.ConversionCeiling,
		ROICeiling:        cfg.Scoring.ROICeiling,
		OpenRateCeiling:   cfg.Scoring.OpenRateCeiling,
		VolumeCeiling:     cfg.Scoring.VolumeCeiling,
		SendCapacity:      cfg.Scoring.SendCapacity,
	})

	handlers := api.NewHandlers(seq, agentRepo, campaignRepo, contactRepo, ledgerRepo, recommender)
	handlers.SetEventSource(ledgerRepo)
	server := api.NewServer(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Printf("[Server] Listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil {
			log.Printf("[Server] %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[Server] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
}
