package model

import "time"

// SMSConsent 一个手机号的短信授权状态
type SMSConsent struct {
	Phone     string    `json:"phone"` // E.164
	OptedIn   bool      `json:"opted_in"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}
