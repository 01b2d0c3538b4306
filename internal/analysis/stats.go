package analysis

import (
	"math"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// cagr computes the compound annual growth rate in percent between the
// oldest and latest values of a series spanning n year-over-year steps.
// Undefined when the oldest value is not positive or the latest is zero.
func cagr(oldest, latest float64, steps int) (float64, bool) {
	if steps <= 0 || oldest <= 0 || latest == 0 {
		return 0, false
	}
	return (math.Pow(latest/oldest, 1/float64(steps)) - 1) * 100, true
}

// coefficientOfVariation is population standard deviation over the mean.
// Undefined for a non-positive mean.
func coefficientOfVariation(values []float64) (float64, bool) {
	avg := mean(values)
	if avg <= 0 {
		return 0, false
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance) / avg, true
}

func valueRange(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

func countPositive(values []float64) int {
	n := 0
	for _, v := range values {
		if v > 0 {
			n++
		}
	}
	return n
}

func countNegative(values []float64) int {
	n := 0
	for _, v := range values {
		if v < 0 {
			n++
		}
	}
	return n
}

// yoyGrowthRates returns year-over-year growth percentages for a series in
// chronological order, skipping steps with a non-positive base year
func yoyGrowthRates(values []float64) []float64 {
	var rates []float64
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			rates = append(rates, (values[i]-values[i-1])/values[i-1]*100)
		}
	}
	return rates
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
