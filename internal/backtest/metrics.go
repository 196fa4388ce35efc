// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package backtest

// Rank-quality helpers for evaluating one prediction case or a whole
// run; the backtest's own scoring only needs set intersection, callers
// evaluating tuning sweeps want the finer-grained signals.

// HitRate returns the fraction of recommended practices that actually
// improved. Empty recommendations score 0.
func HitRate(recommended []string, improved map[string]struct{}) float64 {
	if len(recommended) == 0 {
		return 0
	}
	hits := 0
	for _, practice := range recommended {
		if _, ok := improved[practice]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(recommended))
}

// ReciprocalRank returns 1/rank of the first recommended practice that
// actually improved, or 0 when none did. Averaged across cases this is
// the mean reciprocal rank.
func ReciprocalRank(recommended []string, improved map[string]struct{}) float64 {
	for i, practice := range recommended {
		if _, ok := improved[practice]; ok {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// Coverage returns the fraction of catalog practices that appeared in
// any recommendation across a run. Low coverage means the recommender
// keeps suggesting the same few practices.
func Coverage(allRecommended []string, catalog []string) float64 {
	if len(catalog) == 0 {
		return 0
	}

	inCatalog := make(map[string]struct{}, len(catalog))
	for _, practice := range catalog {
		inCatalog[practice] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, practice := range allRecommended {
		if _, ok := inCatalog[practice]; ok {
			seen[practice] = struct{}{}
		}
	}
	return float64(len(seen)) / float64(len(catalog))
}
