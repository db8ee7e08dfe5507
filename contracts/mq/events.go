package mq

import "time"

// 路由键，全部发布到 events topic exchange
const (
	RoutingKeyLeadCreated           = "lead.created"
	RoutingKeyNotificationRequested = "notification.requested"
	RoutingKeyPaymentCompleted      = "payment.completed"
)

// LeadCreatedPayload 问卷提交后产生的线索
type LeadCreatedPayload struct {
	ResponseID int64     `json:"response_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	State      string    `json:"state,omitempty"`
	RiskScore  int       `json:"risk_score"`
	RiskLevel  string    `json:"risk_level"`
	TraceID    string    `json:"trace_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PaymentCompletedPayload 订阅已激活，worker 负责发送收据并更新 CRM
type PaymentCompletedPayload struct {
	SubscriptionID int64     `json:"subscription_id"`
	UserID         int64     `json:"user_id"`
	Provider       string    `json:"provider"` // stripe / paypal
	ExternalID     string    `json:"external_id"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
	TraceID        string    `json:"trace_id,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}
