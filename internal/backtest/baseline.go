// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package backtest

import "math"

// randomBaseline returns the probability that a uniformly random choice
// of topN practices out of n intersects a kAvg-sized set of actually
// improved practices:
//
//	P(at least one hit) = 1 - C(n-kAvg, topN) / C(n, topN)
//
// kAvg is an observed average and therefore real-valued; the binomial
// coefficients generalize via the falling factorial. Degenerate inputs
// fall back to the linear approximation min(1, (kAvg/n)*topN).
func randomBaseline(n int, kAvg float64, topN int) float64 {
	if n <= 0 || kAvg <= 0 || topN <= 0 {
		return 0
	}
	if kAvg > float64(n) || topN > n {
		return approxBaseline(n, kAvg, topN)
	}

	// Fewer than topN non-improved practices remain: every possible
	// pick must intersect the improved set.
	if float64(n)-kAvg < float64(topN) {
		return 1
	}

	denominator := binomialReal(float64(n), topN)
	if denominator <= 0 {
		return approxBaseline(n, kAvg, topN)
	}
	pNone := binomialReal(float64(n)-kAvg, topN) / denominator

	baseline := 1 - pNone
	return math.Max(0, math.Min(1, baseline))
}

// binomialReal computes C(x, m) for real x via the falling factorial:
// x(x-1)...(x-m+1)/m!.
func binomialReal(x float64, m int) float64 {
	result := 1.0
	for i := 0; i < m; i++ {
		result *= (x - float64(i)) / float64(i+1)
	}
	return result
}

func approxBaseline(n int, kAvg float64, topN int) float64 {
	return math.Min(1, kAvg/float64(n)*float64(topN))
}
