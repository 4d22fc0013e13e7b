// SPDX-License-Identifier: MIT
package synth

import "math"

// MaxSeriesTerms is the largest truncation bound whose factorial still fits in
// a float64. Beyond it the denominator overflows to +Inf.
const MaxSeriesTerms = 170

// EvaluateSeries returns the truncated alternating series
//
//	sum_{m=0}^{terms-1} (-1)^m / (m! * Γ(m+order+1)) * (x/2)^(2m+order)
//
// which approximates the Bessel function of the first kind J_order(x) for
// moderate x. The result is only the explicit finite sum: no convergence or
// error bound is checked, and terms <= 0 yields 0.
//
// Valid domain: x >= 0 for any order, or any x when order is an integer.
// Outside it (negative base, fractional power) math.Pow yields NaN, which is
// returned unmodified. Overflow of the factorial or gamma term for large
// terms produces 0, ±Inf or NaN in the same way.
func EvaluateSeries(x, order float64, terms int) float64 {
	half := x / 2
	var sum float64
	for m := 0; m < terms; m++ {
		fm := float64(m)
		sign := 1.0
		if m%2 == 1 {
			sign = -1.0
		}
		factorial := math.Gamma(fm + 1)
		sum += sign / factorial / math.Gamma(fm+order+1) * math.Pow(half, 2*fm+order)
	}
	return sum
}

// Carrier evaluates the series at an argument proportional to time, x = TimeScale*t.
type Carrier struct {
	Order     float64 // a, the order of the approximated function
	Terms     int     // M, the fixed truncation bound
	TimeScale float64 // maps seconds onto the series argument
}

// At returns the carrier value at time t (seconds).
func (c Carrier) At(t float64) float64 {
	return EvaluateSeries(c.TimeScale*t, c.Order, c.Terms)
}
