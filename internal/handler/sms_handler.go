package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration/twilio"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type ConsentService interface {
	Record(ctx context.Context, phone, source string) error
	HandleInbound(ctx context.Context, from, body string) (string, error)
}

// SMSWebhookConfig Twilio 回调签名配置
type SMSWebhookConfig struct {
	AuthToken string
	PublicURL string
	// 缺少 AuthToken 或 PublicURL 时放行未签名请求（本地开发）
	AllowUnsigned bool
}

// Verifiable 签名所需的配置是否齐全
func (c SMSWebhookConfig) Verifiable() bool {
	return c.AuthToken != "" && c.PublicURL != ""
}

// SMSHandler 短信授权：公开登记与 Twilio 回调
type SMSHandler struct {
	consent ConsentService
	webhook SMSWebhookConfig
	logger  *zap.Logger
}

func NewSMSHandler(consent ConsentService, webhook SMSWebhookConfig, logger *zap.Logger) *SMSHandler {
	return &SMSHandler{consent: consent, webhook: webhook, logger: logger}
}

// OptIn 用户主动同意接收短信
// POST /sms/consent
func (h *SMSHandler) OptIn(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if err := h.consent.Record(c.Request.Context(), req.Phone, "web_form"); err != nil {
		writeError(c, h.logger, "failed to record consent", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"opted_in": true})
}

// InboundSMS 处理 STOP/START 等关键词
// POST /webhooks/twilio/sms
func (h *SMSHandler) InboundSMS(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		badRequest(c, "invalid form")
		return
	}
	form := c.Request.PostForm

	switch {
	case h.webhook.Verifiable():
		fullURL := h.webhook.PublicURL + c.Request.URL.RequestURI()
		if !twilio.ValidSignature(h.webhook.AuthToken, fullURL, form, c.GetHeader(twilio.SignatureHeader)) {
			h.logger.Warn("Rejected Twilio webhook with bad signature", zap.String("url", fullURL))
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
	case !h.webhook.AllowUnsigned:
		h.logger.Error("Rejected Twilio webhook, signature verification not configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sms webhook not configured"})
		return
	}

	from := form.Get("From")
	if from == "" {
		badRequest(c, "missing From")
		return
	}
	action, err := h.consent.HandleInbound(c.Request.Context(), from, form.Get("Body"))
	if err != nil {
		writeError(c, h.logger, "failed to process inbound sms", err)
		return
	}
	h.logger.Info("Inbound SMS processed", zap.String("action", action))
	c.Data(http.StatusOK, "application/xml", []byte(emptyTwiML))
}
