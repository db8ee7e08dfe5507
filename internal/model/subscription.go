package model

import "time"

// 订阅状态
const (
	SubscriptionStatusPending  = "pending"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPastDue  = "past_due"
)

var SubscriptionStatuses = []string{
	SubscriptionStatusPending,
	SubscriptionStatusActive,
	SubscriptionStatusCanceled,
	SubscriptionStatusPastDue,
}

// 支付渠道
const (
	ProviderStripe = "stripe"
	ProviderPayPal = "paypal"
)

type Subscription struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Plan        string    `json:"plan"`
	Provider    string    `json:"provider"`
	ExternalID  string    `json:"external_id,omitempty"`
	Status      string    `json:"status"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
