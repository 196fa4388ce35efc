// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package recommend

import "fmt"

// Params is the flat set of numeric knobs the recommendation engine
// accepts. Zero values take defaults from DefaultParams.
type Params struct {
	// TopN is the number of recommendations to return.
	TopN int `json:"top_n"`

	// KSimilar is the number of distinct similar teams to consider.
	KSimilar int `json:"k_similar"`

	// SimilarityWeight blends similarity vs sequence scores.
	// 0.6 means 60% weight on similarity, 40% on sequences.
	SimilarityWeight float64 `json:"similarity_weight"`

	// LookaheadPeriods is how many periods ahead of a match to check
	// for improvements by similar teams, never past the query period.
	LookaheadPeriods int `json:"lookahead_periods"`

	// RecentPeriods is how many periods back to check for the query
	// team's own recent improvements that trigger sequence boosts.
	RecentPeriods int `json:"recent_periods"`

	// MinSimilarity is the minimum cosine similarity for a team to
	// count as similar. 0 disables the filter.
	MinSimilarity float64 `json:"min_similarity"`
}

// DefaultParams returns the tuned default knobs.
func DefaultParams() Params {
	return Params{
		TopN:             2,
		KSimilar:         19,
		SimilarityWeight: 0.6,
		LookaheadPeriods: 3,
		RecentPeriods:    3,
		MinSimilarity:    0.75,
	}
}

// WithDefaults fills zero-valued knobs from DefaultParams.
// MinSimilarity is left alone: zero is a meaningful value (no filter).
func (p Params) WithDefaults() Params {
	defaults := DefaultParams()
	if p.TopN == 0 {
		p.TopN = defaults.TopN
	}
	if p.KSimilar == 0 {
		p.KSimilar = defaults.KSimilar
	}
	if p.SimilarityWeight == 0 {
		p.SimilarityWeight = defaults.SimilarityWeight
	}
	if p.LookaheadPeriods == 0 {
		p.LookaheadPeriods = defaults.LookaheadPeriods
	}
	if p.RecentPeriods == 0 {
		p.RecentPeriods = defaults.RecentPeriods
	}
	return p
}

// Validate checks every knob against its documented range.
func (p Params) Validate() error {
	if p.TopN < 1 {
		return fmt.Errorf("top_n must be >= 1, got %d", p.TopN)
	}
	if p.KSimilar < 1 {
		return fmt.Errorf("k_similar must be >= 1, got %d", p.KSimilar)
	}
	if p.SimilarityWeight < 0 || p.SimilarityWeight > 1 {
		return fmt.Errorf("similarity_weight must be in [0,1], got %v", p.SimilarityWeight)
	}
	if p.LookaheadPeriods < 1 {
		return fmt.Errorf("lookahead_periods must be >= 1, got %d", p.LookaheadPeriods)
	}
	if p.RecentPeriods < 1 {
		return fmt.Errorf("recent_periods must be >= 1, got %d", p.RecentPeriods)
	}
	if p.MinSimilarity < 0 || p.MinSimilarity > 1 {
		return fmt.Errorf("min_similarity must be in [0,1], got %v", p.MinSimilarity)
	}
	return nil
}
