package analysis

import "math"

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}

// popStdDev is the population standard deviation (divisor n).
func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// sampleStdDev is the sample standard deviation (divisor n-1).
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// normalize ratios a value against a reference ceiling, capped at 1.
func normalize(value, ceiling float64) float64 {
	return math.Min(value/ceiling, 1.0)
}

// round2 rounds to two decimal places. Idempotent on already-rounded input.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
