package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"foreclosure-assist/internal/handler"
	"foreclosure-assist/pkg/otel"
	"foreclosure-assist/pkg/rbac"
)

// Pinger 由 pgxpool.Pool 实现，用于 /readyz
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers 汇总 API 进程的所有 handler
type Handlers struct {
	Auth          *handler.AuthHandler
	Questionnaire *handler.QuestionnaireHandler
	Property      *handler.PropertyHandler
	Content       *handler.ContentHandler
	Moderation    *handler.ModerationHandler
	Payment       *handler.PaymentHandler
	SMS           *handler.SMSHandler
	Campaign      *handler.CampaignHandler
	Admin         *handler.AdminHandler
}

type Options struct {
	JWTSecret      string
	RateLimitRPS   int
	RateLimitBurst int
	Tracing        bool
}

type Router struct {
	Engine *gin.Engine
}

// newEngine 所有进程共用的基础中间件与健康检查
func newEngine(db Pinger, logger *zap.Logger, tracing bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware())
	if tracing {
		r.Use(otel.GinMiddleware())
	}
	r.Use(AccessLog(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// NewHealthRouter worker 与 scheduler 只暴露健康检查和指标
func NewHealthRouter(db Pinger, logger *zap.Logger) *Router {
	return &Router{Engine: newEngine(db, logger, false)}
}

func NewRouter(h Handlers, opts Options, db Pinger, logger *zap.Logger) *Router {
	r := newEngine(db, logger, opts.Tracing)

	api := r.Group("/")
	if opts.RateLimitRPS > 0 {
		api.Use(NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).Handler())
	}

	// Public
	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)
	api.POST("/questionnaire", h.Questionnaire.Submit)
	api.POST("/risk/score", h.Questionnaire.Score)
	api.GET("/property/report", h.Property.Report)
	api.POST("/property/estimate", h.Property.Estimate)
	api.GET("/courses", h.Content.ListCourses)
	api.GET("/courses/:id/lessons", h.Content.ListLessons)
	api.GET("/kb/search", h.Content.SearchKB)
	api.GET("/lessons/:id/comments", h.Moderation.LessonComments)
	api.POST("/comments", h.Moderation.SubmitComment)
	api.POST("/sms/consent", h.SMS.OptIn)

	// Webhooks (签名在 handler 内校验，不限流)
	r.POST("/webhooks/stripe", h.Payment.StripeWebhook)
	r.POST("/webhooks/twilio/sms", h.SMS.InboundSMS)

	// Authenticated
	auth := api.Group("/")
	auth.Use(AuthMiddleware(opts.JWTSecret))
	{
		auth.POST("/courses/:id/enroll", RequirePermission(rbac.PermissionEnroll), h.Content.Enroll)
		auth.GET("/courses/:id/progress", RequirePermission(rbac.PermissionEnroll), h.Content.Progress)
		auth.POST("/lessons/:id/complete", RequirePermission(rbac.PermissionEnroll), h.Content.CompleteLesson)

		pay := auth.Group("/", RequirePermission(rbac.PermissionPay))
		pay.GET("/subscriptions", h.Payment.Subscriptions)
		pay.POST("/subscriptions/:id/cancel", h.Payment.Cancel)
		pay.POST("/payments/stripe/checkout", h.Payment.StripeCheckout)
		pay.POST("/payments/paypal/orders", h.Payment.CreatePayPalOrder)
		pay.POST("/payments/paypal/orders/:id/capture", h.Payment.CapturePayPalOrder)
	}

	// Admin
	admin := auth.Group("/admin")
	{
		comments := admin.Group("/comments", RequirePermission(rbac.PermissionModerateComments))
		comments.GET("", h.Moderation.ListComments)
		comments.GET("/counts", h.Moderation.CommentCounts)
		comments.PUT("/:id/status", h.Moderation.TransitionComment)
		comments.DELETE("/:id", h.Moderation.DeleteComment)

		responses := admin.Group("/responses", RequirePermission(rbac.PermissionManageResponses))
		responses.GET("", h.Moderation.ListResponses)
		responses.GET("/counts", h.Moderation.ResponseCounts)
		responses.GET("/:id", h.Moderation.GetResponse)
		responses.PUT("/:id/status", h.Moderation.UpdateResponseStatus)
		responses.DELETE("/:id", h.Moderation.DeleteResponse)
		responses.POST("/:id/notify", h.Moderation.NotifyResponse)

		content := admin.Group("/", RequirePermission(rbac.PermissionManageContent))
		content.GET("/courses", h.Content.ListAllCourses)
		content.POST("/courses", h.Content.CreateCourse)
		content.PUT("/courses/:id", h.Content.UpdateCourse)
		content.DELETE("/courses/:id", h.Content.DeleteCourse)
		content.GET("/courses/:id/lessons", h.Content.AdminListLessons)
		content.POST("/courses/:id/lessons", h.Content.CreateLesson)
		content.PUT("/lessons/:id", h.Content.UpdateLesson)
		content.DELETE("/lessons/:id", h.Content.DeleteLesson)
		content.POST("/kb", h.Content.CreateKBArticle)

		campaigns := admin.Group("/campaigns", RequirePermission(rbac.PermissionManageCampaigns))
		campaigns.GET("", h.Campaign.List)
		campaigns.POST("", h.Campaign.Create)
		campaigns.GET("/:id", h.Campaign.Get)
		campaigns.PUT("/:id", h.Campaign.Update)
		campaigns.PUT("/:id/status", h.Campaign.Transition)
		campaigns.DELETE("/:id", h.Campaign.Delete)

		admin.GET("/analytics", RequirePermission(rbac.PermissionViewAnalytics), h.Admin.Analytics)
		admin.POST("/followup/run", RequirePermission(rbac.PermissionRunFollowup), h.Admin.RunFollowup)
		admin.GET("/connectivity", RequirePermission(rbac.PermissionCheckConnectivity), h.Admin.Connectivity)
		admin.POST("/outbox/replay", RequirePermission(rbac.PermissionReplayOutbox), h.Admin.ReplayOutboxEvent)
		admin.POST("/outbox/replay-failed", RequirePermission(rbac.PermissionReplayOutbox), h.Admin.ReplayFailedEvents)
	}

	return &Router{Engine: r}
}

// Server 包装成 http.Server，便于优雅关闭
func (r *Router) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
