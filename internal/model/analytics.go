package model

type DailyCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// MasterAnalytics is the admin dashboard snapshot. A metric that failed to load
// is absent from its map and listed in Errors.
type MasterAnalytics struct {
	Counts             map[string]int    `json:"counts"`
	ResponsesByStatus  map[string]int    `json:"responses_by_status,omitempty"`
	RiskLevels         map[string]int    `json:"risk_levels,omitempty"`
	CommentsByStatus   map[string]int    `json:"comments_by_status,omitempty"`
	SubscriptionStatus map[string]int    `json:"subscriptions_by_status,omitempty"`
	CampaignsByStatus  map[string]int    `json:"campaigns_by_status,omitempty"`
	ResponsesPerDay    []DailyCount      `json:"responses_per_day,omitempty"`
	Errors             map[string]string `json:"errors,omitempty"`
	GeneratedAt        string            `json:"generated_at"`
}
