package mq

import "time"

// 通知渠道
const (
	ChannelEmail = "EMAIL"
	ChannelSMS   = "SMS"
)

// NotificationRequestedPayload 请求 worker 发送一条通知
type NotificationRequestedPayload struct {
	RequestID string    `json:"request_id"` // worker 按此去重
	Channel   string    `json:"channel"`    // EMAIL / SMS
	To        string    `json:"to"`         // 邮箱地址或 E.164 手机号
	Name      string    `json:"name,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	TraceID   string    `json:"trace_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
