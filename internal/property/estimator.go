package property

import (
	"errors"
	"math"
)

// ErrEstimateOutOfRange is returned when the inputs overflow a finite dollar value.
var ErrEstimateOutOfRange = errors.New("estimate out of range")

// DefaultPricePerSqft is used when no comparable sale is usable.
const DefaultPricePerSqft = 150.0

// Comparable is a recent nearby sale.
type Comparable struct {
	Address string  `json:"address"`
	Price   float64 `json:"price"`
	Sqft    float64 `json:"sqft"`
}

type Estimate struct {
	Value        float64 `json:"value"`
	PricePerSqft float64 `json:"price_per_sqft"`
	CompsUsed    int     `json:"comps_used"`
	UsedFallback bool    `json:"used_fallback"`
}

// EstimateValue multiplies sqft by the mean price per square foot of the usable comps.
// Comps with a non-positive price or size are ignored. Prices are rounded to cents.
func EstimateValue(sqft float64, comps []Comparable) (Estimate, error) {
	if math.IsNaN(sqft) || math.IsInf(sqft, 0) {
		return Estimate{}, ErrEstimateOutOfRange
	}
	var total float64
	used := 0
	for _, c := range comps {
		if c.Price <= 0 || c.Sqft <= 0 {
			continue
		}
		total += c.Price / c.Sqft
		used++
	}

	est := Estimate{PricePerSqft: DefaultPricePerSqft, UsedFallback: true}
	if used > 0 {
		est.PricePerSqft = round2(total / float64(used))
		est.CompsUsed = used
		est.UsedFallback = false
	}
	if sqft > 0 {
		est.Value = round2(sqft * est.PricePerSqft)
	}
	if !finite(est.PricePerSqft) || !finite(est.Value) {
		return Estimate{}, ErrEstimateOutOfRange
	}
	return est, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
