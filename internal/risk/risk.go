// Package risk scores a foreclosure questionnaire into a 0-100 risk number.
package risk

import "math"

const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Per-question weights.
const (
	WeightMissedPayment     = 12.0
	MaxMissedPayments       = 6
	WeightNoticeOfDefault   = 15.0
	WeightBehindOnTaxes     = 10.0
	WeightIncomeLoss        = 15.0
	WeightSecondMortgage    = 5.0
	WeightLoanToValue       = 20.0
	WeightWorkingWithLender = -10.0
)

// Answers is the scored subset of the questionnaire.
type Answers struct {
	MissedPayments int `json:"missed_payments"`
	// nil when no sale date has been set
	DaysUntilSale           *int    `json:"days_until_sale"`
	ReceivedNoticeOfDefault bool    `json:"received_notice_of_default"`
	BehindOnTaxes           bool    `json:"behind_on_taxes"`
	IncomeLoss              bool    `json:"income_loss"`
	HasSecondMortgage       bool    `json:"has_second_mortgage"`
	LoanToValue             float64 `json:"loan_to_value"`
	WorkingWithLender       bool    `json:"working_with_lender"`
}

// Assessment is the result of Score. Breakdown holds each question's contribution.
type Assessment struct {
	Score     int                `json:"score"`
	Level     string             `json:"level"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// Score is pure: the same answers always give the same assessment.
func Score(a Answers) Assessment {
	breakdown := map[string]float64{
		"missed_payments":            WeightMissedPayment * float64(clampInt(a.MissedPayments, 0, MaxMissedPayments)),
		"days_until_sale":            saleUrgency(a.DaysUntilSale),
		"received_notice_of_default": flag(a.ReceivedNoticeOfDefault, WeightNoticeOfDefault),
		"behind_on_taxes":            flag(a.BehindOnTaxes, WeightBehindOnTaxes),
		"income_loss":                flag(a.IncomeLoss, WeightIncomeLoss),
		"has_second_mortgage":        flag(a.HasSecondMortgage, WeightSecondMortgage),
		"loan_to_value":              WeightLoanToValue * math.Min(math.Max(a.LoanToValue, 0), 1),
		"working_with_lender":        flag(a.WorkingWithLender, WeightWorkingWithLender),
	}

	var sum float64
	for _, v := range breakdown {
		sum += v
	}

	score := int(math.Round(math.Min(math.Max(sum, 0), 100)))
	return Assessment{
		Score:     score,
		Level:     Level(score),
		Breakdown: breakdown,
	}
}

// Level buckets a clamped score.
func Level(score int) string {
	switch {
	case score < 40:
		return LevelLow
	case score < 70:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// saleUrgency maps days until the auction to points; a past sale date counts as imminent.
func saleUrgency(days *int) float64 {
	if days == nil {
		return 0
	}
	switch d := *days; {
	case d <= 30:
		return 30
	case d <= 90:
		return 20
	case d <= 180:
		return 10
	default:
		return 0
	}
}

func flag(v bool, weight float64) float64 {
	if v {
		return weight
	}
	return 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
