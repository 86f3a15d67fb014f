// Package odds provides conversions between American odds, decimal odds,
// and implied probabilities. Decimal arithmetic is used for the conversions
// so repeated round-trips don't accumulate float error.
package odds

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// AmericanToDecimal converts American odds to decimal (European) odds.
// -110 → 1.909..., +150 → 2.5. A price of 0 is invalid and returns 0.
func AmericanToDecimal(price int) float64 {
	if price == 0 {
		return 0
	}

	p := decimal.NewFromInt(int64(price))
	var dec decimal.Decimal
	if price > 0 {
		// 1 + price/100
		dec = one.Add(p.Div(hundred))
	} else {
		// 1 + 100/|price|
		dec = one.Add(hundred.Div(p.Neg()))
	}

	f, _ := dec.Round(4).Float64()
	return f
}

// DecimalToAmerican converts decimal odds to American odds, rounding to the
// nearest integer. Decimal odds at or below 1.0 are invalid and return 0.
func DecimalToAmerican(dec float64) int {
	if dec <= 1.0 {
		return 0
	}

	d := decimal.NewFromFloat(dec)
	var american decimal.Decimal
	if dec >= 2.0 {
		american = d.Sub(one).Mul(hundred)
	} else {
		american = hundred.Div(d.Sub(one)).Neg()
	}

	return int(american.Round(0).IntPart())
}

// ImpliedProbability returns the probability implied by American odds,
// including the bookmaker's margin. Range (0,1); 0 for an invalid price.
func ImpliedProbability(price int) float64 {
	dec := AmericanToDecimal(price)
	if dec == 0 {
		return 0
	}

	p, _ := one.Div(decimal.NewFromFloat(dec)).Round(6).Float64()
	return p
}

// RemoveVig2 converts two implied probabilities (over/under or two-way
// moneyline) to fair probabilities by stripping the bookmaker's overround.
func RemoveVig2(a, b float64) (float64, float64) {
	total := a + b
	if total <= 0 {
		return 0, 0
	}
	return a / total, b / total
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
