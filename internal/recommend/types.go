// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package recommend

import (
	"errors"

	"github.com/tomtom215/agilepath/internal/maturity"
)

// ErrInsufficientHistory indicates the team has no observation strictly
// before the query period, so a recommendation cannot be grounded in any
// past data. Callers testing cold-start behavior can override the guard
// with Request.AllowFirstPeriods.
var ErrInsufficientHistory = errors.New("insufficient history")

// SimilarMatch is one (team, period) observation found by the similarity
// search. Derived, never stored: recomputed per query.
type SimilarMatch struct {
	// Team is the matched team name.
	Team string `json:"team"`

	// Period is the historical period at which the team was similar.
	Period maturity.Period `json:"period"`

	// Score is the cosine similarity in [0, 1].
	Score float64 `json:"score"`
}

// TransitionEntry is one learned practice-to-practice transition.
type TransitionEntry struct {
	// From is the practice that improved first.
	From string `json:"from"`

	// To is the practice that improved together with From.
	To string `json:"to"`

	// Count is how many observed transitions contained this pair.
	Count int `json:"count"`

	// Probability is Count divided by the total outgoing count of From.
	Probability float64 `json:"probability"`
}

// PracticeProb pairs a practice with its transition probability.
type PracticeProb struct {
	Practice    string  `json:"practice"`
	Probability float64 `json:"probability"`
}

// Recommendation is one ranked practice suggestion. Ephemeral: produced
// per call and never persisted by the core.
type Recommendation struct {
	// Practice is the recommended practice name.
	Practice string `json:"practice"`

	// Score is the blended, normalized recommendation score in [0, 1].
	Score float64 `json:"score"`

	// CurrentLevel is the team's normalized maturity for this practice
	// at the query period.
	CurrentLevel float64 `json:"current_level"`

	// SimilarTeams lists the matches that contributed non-zero
	// similarity score to this practice.
	SimilarTeams []SimilarMatch `json:"similar_teams,omitempty"`

	// Transitions lists the learned transitions that contributed
	// non-zero sequence score to this practice.
	Transitions []TransitionEntry `json:"transitions,omitempty"`
}

// Request identifies the team/period to recommend for, plus tuning knobs.
type Request struct {
	// Team is the team to generate recommendations for.
	Team string `json:"team"`

	// Period is the query period. Only data strictly before it (and, for
	// similar teams' lookahead windows, at most up to it) is consulted.
	Period maturity.Period `json:"period"`

	// Params holds the tuning knobs. Zero values take defaults.
	Params Params `json:"params"`

	// AllowFirstPeriods permits limited operation when the team has no
	// earlier observation. Explicit escape hatch for cold-start testing;
	// deliberately a parameter, not an ambient mode.
	AllowFirstPeriods bool `json:"allow_first_periods,omitempty"`
}
