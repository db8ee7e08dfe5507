package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foreclosure-assist/internal/followup"
	"foreclosure-assist/internal/integration"
	"foreclosure-assist/internal/model"
)

type OutboxReplayer interface {
	ReplayEvent(ctx context.Context, eventID int64) error
	ReplayFailedEvents(ctx context.Context, limit int) (int, error)
}

type AnalyticsService interface {
	Master(ctx context.Context) *model.MasterAnalytics
}

type ConnectivityChecker interface {
	Check(ctx context.Context) []integration.CheckResult
}

// AdminHandler 运维类接口：outbox 重放、仪表盘、跟进任务、第三方连通性
type AdminHandler struct {
	replay       OutboxReplayer
	analytics    AnalyticsService
	followup     followup.Runner
	connectivity ConnectivityChecker
	logger       *zap.Logger
	now          func() time.Time
}

func NewAdminHandler(
	replay OutboxReplayer,
	analytics AnalyticsService,
	runner followup.Runner,
	connectivity ConnectivityChecker,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		replay:       replay,
		analytics:    analytics,
		followup:     runner,
		connectivity: connectivity,
		logger:       logger,
		now:          time.Now,
	}
}

// ReplayOutboxEvent 重放指定的 Outbox 事件
// POST /admin/outbox/replay?id=xxx
func (h *AdminHandler) ReplayOutboxEvent(c *gin.Context) {
	idStr := c.Query("id")
	if idStr == "" {
		badRequest(c, "missing id parameter")
		return
	}
	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		badRequest(c, "invalid id parameter")
		return
	}

	if err := h.replay.ReplayEvent(c.Request.Context(), eventID); err != nil {
		writeError(c, h.logger, "failed to replay event", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "replayed", "event_id": eventID})
}

// ReplayFailedEvents 重放所有失败的事件
// POST /admin/outbox/replay-failed?limit=100
func (h *AdminHandler) ReplayFailedEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	successCount, err := h.replay.ReplayFailedEvents(c.Request.Context(), limit)
	if err != nil {
		writeError(c, h.logger, "failed to replay failed events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "completed",
		"success_count": successCount,
		"limit":         limit,
	})
}

// Analytics 仪表盘汇总，单项失败不影响其它指标
// GET /admin/analytics
func (h *AdminHandler) Analytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.analytics.Master(c.Request.Context()))
}

// RunFollowup 立即执行一次跟进邮件任务
// POST /admin/followup/run
func (h *AdminHandler) RunFollowup(c *gin.Context) {
	res, err := h.followup.Run(c.Request.Context(), h.now())
	if err != nil {
		h.logger.Warn("Manual followup run finished with errors", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"result": res, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

// Connectivity 探测所有第三方服务
// GET /admin/connectivity
func (h *AdminHandler) Connectivity(c *gin.Context) {
	results := h.connectivity.Check(c.Request.Context())
	healthy := true
	for _, r := range results {
		if !r.Reachable {
			healthy = false
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"healthy": healthy, "vendors": results})
}
