package model

import "time"

// 营销活动状态
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSent      = "sent"
	CampaignStatusArchived  = "archived"
)

var CampaignStatuses = []string{
	CampaignStatusDraft,
	CampaignStatusScheduled,
	CampaignStatusSent,
	CampaignStatusArchived,
}

type Campaign struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	Channel     string     `json:"channel"` // EMAIL / SMS
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
