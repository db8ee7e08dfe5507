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
	"foreclosure-assist/internal/handler"
	"foreclosure-assist/internal/httpserver"
	"foreclosure-assist/internal/integration"
	"foreclosure-assist/internal/integration/mailerlite"
	"foreclosure-assist/internal/integration/paypal"
	"foreclosure-assist/internal/integration/stripe"
	"foreclosure-assist/internal/property"
	"foreclosure-assist/internal/repository"
	"foreclosure-assist/internal/service"
	"foreclosure-assist/pkg/config"
	"foreclosure-assist/pkg/db"
	"foreclosure-assist/pkg/logger"
	"foreclosure-assist/pkg/mq"
	"foreclosure-assist/pkg/otel"
	"foreclosure-assist/pkg/outbox"
	redisclient "foreclosure-assist/pkg/redis"
	"foreclosure-assist/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewFromConfig(cfg.Log, "api")
	defer log.Sync()

	shutdownTracing, err := otel.Init("api", cfg.OTel, log)
	if err != nil {
		log.Warn("OpenTelemetry disabled", zap.Error(err))
		shutdownTracing = func() {}
	}
	defer shutdownTracing()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis（可选）
	rdb := redisclient.Connect(context.Background(), cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}
	cache := redisclient.Cmdable(rdb)

	// Init MQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Init Repositories
	outboxRepo := outbox.NewRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)
	responseRepo := repository.NewResponseRepository(dbConn, outboxRepo, log)
	commentRepo := repository.NewCommentRepository(dbConn)
	contentRepo := repository.NewContentRepository(dbConn)
	consentRepo := repository.NewConsentRepository(dbConn)
	subscriptionRepo := repository.NewSubscriptionRepository(dbConn, outboxRepo, log)
	campaignRepo := repository.NewCampaignRepository(dbConn)
	analyticsRepo := repository.NewAnalyticsRepository(dbConn)

	// Init Vendor clients
	mailer := mailerlite.NewClient(cfg.Vendors.MailerLite, log)
	stripeClient := stripe.NewClient(cfg.Vendors.Stripe, log)
	paypalClient := paypal.NewClient(cfg.Vendors.PayPal, log)

	// Init Services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)
	questionnaireService := service.NewQuestionnaireService(responseRepo, log)
	moderationService := service.NewModerationService(commentRepo, responseRepo, log)
	notifyService := service.NewNotifyService(responseRepo, publisher, log)
	contentService := service.NewContentService(contentRepo, log)
	consentService := service.NewConsentService(consentRepo, log)
	paymentService := service.NewPaymentService(subscriptionRepo, stripeClient, paypalClient, cfg.Payments, cfg.Vendors.Stripe.Secret, log)
	campaignService := service.NewCampaignService(campaignRepo, log)
	analyticsService := service.NewAnalyticsService(analyticsRepo, service.StatusCounters{
		Responses:     responseRepo,
		Comments:      commentRepo,
		Subscriptions: subscriptionRepo,
		Campaigns:     campaignRepo,
	}, repository.CountMetrics(), log)
	aggregator := property.NewAggregatorFromConfig(cfg.Vendors, cache, log)
	deduper := util.NewDeduper(cache, time.Duration(cfg.Followup.DedupTTLHours)*time.Hour, log)
	followupService := followup.NewService(responseRepo, mailer, deduper, cfg.Followup, log)
	connectivity := integration.NewConnectivity(integration.TargetsFromConfig(cfg.Vendors), log)
	replayService := outbox.NewReplayService(outboxRepo, publisher, log)

	// Webhook secrets: both endpoints reject traffic until configured
	if cfg.Vendors.Stripe.Secret == "" {
		log.Warn("Stripe webhook secret not set, /webhooks/stripe will answer 503")
	}
	smsWebhook := handler.SMSWebhookConfig{
		AuthToken:     cfg.Vendors.Twilio.APIKey,
		PublicURL:     cfg.Server.PublicURL,
		AllowUnsigned: cfg.Server.AllowUnsignedWebhooks,
	}
	if !smsWebhook.Verifiable() {
		if smsWebhook.AllowUnsigned {
			log.Warn("Twilio webhook signatures are not verified (allow_unsigned_webhooks)")
		} else {
			log.Warn("Twilio auth token or server.public_url not set, /webhooks/twilio/sms will answer 503")
		}
	}

	// Init Handlers
	handlers := httpserver.Handlers{
		Auth:          handler.NewAuthHandler(authService, log),
		Questionnaire: handler.NewQuestionnaireHandler(questionnaireService, log),
		Property:      handler.NewPropertyHandler(aggregator, log),
		Content:       handler.NewContentHandler(contentService, log),
		Moderation:    handler.NewModerationHandler(moderationService, notifyService, log),
		Payment:       handler.NewPaymentHandler(paymentService, log),
		SMS:           handler.NewSMSHandler(consentService, smsWebhook, log),
		Campaign:      handler.NewCampaignHandler(campaignService, log),
		Admin:         handler.NewAdminHandler(replayService, analyticsService, followupService, connectivity, log),
	}

	// Init Outbox Dispatcher
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
	go dispatcher.Start(ctx)

	// Router
	router := httpserver.NewRouter(handlers, httpserver.Options{
		JWTSecret:      cfg.JWT.Secret,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		Tracing:        cfg.OTel.Enabled,
	}, dbConn, log)
	srv := router.Server(cfg.Server.Port)

	go func() {
		log.Info("Starting API server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down API server gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("API server shutdown complete")
}
