package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/httpserver"
	"foreclosure-assist/internal/integration/hubspot"
	"foreclosure-assist/internal/integration/mailerlite"
	"foreclosure-assist/internal/integration/twilio"
	"foreclosure-assist/internal/mqhandler"
	"foreclosure-assist/internal/repository"
	"foreclosure-assist/internal/service"
	"foreclosure-assist/pkg/config"
	"foreclosure-assist/pkg/db"
	"foreclosure-assist/pkg/logger"
	"foreclosure-assist/pkg/mq"
	"foreclosure-assist/pkg/otel"
	redisclient "foreclosure-assist/pkg/redis"
	"foreclosure-assist/pkg/util"
)

// 消息去重 key 的有效期
const dedupTTL = 24 * time.Hour

func main() {
	cfg := config.Load()

	log := logger.NewFromConfig(cfg.Log, "worker")
	defer log.Sync()

	shutdownTracing, err := otel.Init("worker", cfg.OTel, log)
	if err != nil {
		log.Warn("OpenTelemetry disabled", zap.Error(err))
		shutdownTracing = func() {}
	}
	defer shutdownTracing()

	log.Info("Starting worker...")

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis（去重，可选）
	rdb := redisclient.Connect(context.Background(), cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}
	deduper := util.NewDeduper(redisclient.Cmdable(rdb), dedupTTL, log)

	// Init Repositories / Services
	userRepo := repository.NewUserRepository(dbConn)
	consentService := service.NewConsentService(repository.NewConsentRepository(dbConn), log)

	// Init Vendor clients
	crm := hubspot.NewClient(cfg.Vendors.HubSpot, log)
	mailer := mailerlite.NewClient(cfg.Vendors.MailerLite, log)
	sms := twilio.NewClient(cfg.Vendors.Twilio, log)
	from := mqhandler.Sender{Email: cfg.Followup.FromEmail, Name: cfg.Followup.FromName}

	// Init Handlers
	handlers := map[string]mq.MessageHandler{
		mqcontracts.RoutingKeyLeadCreated: mqhandler.NewLeadCreatedHandler(
			crm, mailer, cfg.Vendors.MailerLite.Groups, deduper, log).Handle,
		mqcontracts.RoutingKeyNotificationRequested: mqhandler.NewNotificationRequestedHandler(
			mailer, sms, consentService, deduper, from, log).Handle,
		mqcontracts.RoutingKeyPaymentCompleted: mqhandler.NewPaymentCompletedHandler(
			userRepo, mailer, crm, deduper, from, log).Handle,
	}

	// 每个 routing key 一个队列和消费者
	consumers := make([]*mq.Consumer, 0, len(handlers))
	for key, h := range handlers {
		key := key
		queue := key + ".q"
		log.Info("Initializing MQ consumer", zap.String("queue", queue), zap.String("routing_key", key))
		consumer, err := mq.NewConsumer(cfg.MQ.URL, queue, key, log)
		if err != nil {
			log.Fatal("Failed to init consumer", zap.String("routing_key", key), zap.Error(err))
		}
		defer consumer.Close()
		consumer.SetHandler(h)
		consumers = append(consumers, consumer)

		go func() {
			if err := consumer.StartConsuming(); err != nil {
				log.Fatal("Consumer failed", zap.String("routing_key", key), zap.Error(err))
			}
		}()
	}

	// HTTP Server (for health checks)
	srv := httpserver.NewHealthRouter(dbConn, log).Server(config.GetEnv("WORKER_HTTP_PORT", ":8081"))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("Worker is fully initialized and running", zap.Int("consumers", len(consumers)))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker gracefully...")
	for _, c := range consumers {
		c.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("Worker shutdown complete")
}
