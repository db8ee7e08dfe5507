package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"foreclosure-assist/internal/followup"
	"foreclosure-assist/internal/httpserver"
	"foreclosure-assist/internal/integration/mailerlite"
	"foreclosure-assist/internal/repository"
	"foreclosure-assist/pkg/config"
	"foreclosure-assist/pkg/db"
	"foreclosure-assist/pkg/logger"
	"foreclosure-assist/pkg/otel"
	redisclient "foreclosure-assist/pkg/redis"
	"foreclosure-assist/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewFromConfig(cfg.Log, "scheduler")
	defer log.Sync()

	shutdownTracing, err := otel.Init("scheduler", cfg.OTel, log)
	if err != nil {
		log.Warn("OpenTelemetry disabled", zap.Error(err))
		shutdownTracing = func() {}
	}
	defer shutdownTracing()

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redisclient.Connect(context.Background(), cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}
	deduper := util.NewDeduper(redisclient.Cmdable(rdb), time.Duration(cfg.Followup.DedupTTLHours)*time.Hour, log)

	followupService := followup.NewService(
		repository.NewResponseRepository(dbConn, nil, log),
		mailerlite.NewClient(cfg.Vendors.MailerLite, log),
		deduper,
		cfg.Followup,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := followup.NewScheduler(followupService, log)
	if err := scheduler.Schedule(ctx, cfg.Followup.Schedule); err != nil {
		log.Fatal("Invalid followup schedule", zap.String("schedule", cfg.Followup.Schedule), zap.Error(err))
	}
	scheduler.Start()

	srv := httpserver.NewHealthRouter(dbConn, log).Server(config.GetEnv("SCHEDULER_HTTP_PORT", ":8082"))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("Scheduler shutdown complete")
}
