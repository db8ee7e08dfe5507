package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration/paypal"
	"foreclosure-assist/internal/integration/stripe"
	"foreclosure-assist/internal/model"
)

// stripe 事件体上限
const maxWebhookBody = 1 << 20

type PaymentService interface {
	Subscriptions(ctx context.Context, userID int64) ([]model.Subscription, error)
	StartStripeCheckout(ctx context.Context, userID int64, email, plan string) (*stripe.Session, *model.Subscription, error)
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
	CreatePayPalOrder(ctx context.Context, userID int64, plan string) (*paypal.Order, *model.Subscription, error)
	CapturePayPalOrder(ctx context.Context, userID int64, role, orderID string) (*model.Subscription, error)
	Cancel(ctx context.Context, userID int64, role string, subscriptionID int64) error
}

type PaymentHandler struct {
	svc    PaymentService
	logger *zap.Logger
}

func NewPaymentHandler(svc PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, logger: logger}
}

type checkoutRequest struct {
	Plan  string `json:"plan" binding:"required"`
	Email string `json:"email"`
}

// Subscriptions 当前用户的订阅
// GET /subscriptions
func (h *PaymentHandler) Subscriptions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subs, err := h.svc.Subscriptions(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, "failed to list subscriptions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// StripeCheckout 创建 Stripe Checkout 会话
// POST /payments/stripe/checkout
func (h *PaymentHandler) StripeCheckout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	session, sub, err := h.svc.StartStripeCheckout(c.Request.Context(), userID, req.Email, req.Plan)
	if err != nil {
		writeError(c, h.logger, "failed to start checkout", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"subscription_id": sub.ID,
		"session_id":      session.ID,
		"checkout_url":    session.URL,
	})
}

// StripeWebhook 校验签名后处理 checkout.session.completed
// POST /webhooks/stripe
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "failed to read body")
		return
	}
	if err := h.svc.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		writeError(c, h.logger, "failed to process webhook", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// CreatePayPalOrder 创建 PayPal 订单
// POST /payments/paypal/orders
func (h *PaymentHandler) CreatePayPalOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	order, sub, err := h.svc.CreatePayPalOrder(c.Request.Context(), userID, req.Plan)
	if err != nil {
		writeError(c, h.logger, "failed to create order", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"subscription_id": sub.ID,
		"order_id":        order.ID,
		"approve_url":     order.ApproveURL,
	})
}

// CapturePayPalOrder 用户确认后扣款并激活订阅
// POST /payments/paypal/orders/:id/capture
func (h *PaymentHandler) CapturePayPalOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID := c.Param("id")
	if orderID == "" {
		badRequest(c, "invalid id")
		return
	}
	sub, err := h.svc.CapturePayPalOrder(c.Request.Context(), userID, c.GetString(CtxRole), orderID)
	if err != nil {
		writeError(c, h.logger, "failed to capture order", err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Cancel POST /subscriptions/:id/cancel
func (h *PaymentHandler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), userID, c.GetString(CtxRole), id); err != nil {
		writeError(c, h.logger, "failed to cancel subscription", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": model.SubscriptionStatusCanceled})
}
