package model

import "time"

// 问卷回复的处理状态
const (
	ResponseStatusNew        = "new"
	ResponseStatusContacted  = "contacted"
	ResponseStatusInProgress = "in_progress"
	ResponseStatusClosed     = "closed"
)

// ResponseStatuses 仪表盘按此顺序展示
var ResponseStatuses = []string{
	ResponseStatusNew,
	ResponseStatusContacted,
	ResponseStatusInProgress,
	ResponseStatusClosed,
}

// ForeclosureResponse 一条问卷回复（foreclosure_responses 表）
type ForeclosureResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	State     string    `json:"state,omitempty"`
	Answers   []byte    `json:"-"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RiskAssessment 与回复一起写入的风险评估
type RiskAssessment struct {
	ID         int64              `json:"id"`
	ResponseID int64              `json:"response_id"`
	Score      int                `json:"score"`
	Level      string             `json:"level"`
	Breakdown  map[string]float64 `json:"breakdown"`
	CreatedAt  time.Time          `json:"created_at"`
}
