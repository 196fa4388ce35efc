// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

// Package recommend implements the temporally-constrained hybrid
// recommendation core: a collaborative-filtering similarity search
// blended with a Markov-chain sequence model.
//
// Two leakage boundaries hold everywhere:
//
//  1. The similarity candidate pool contains only observations strictly
//     earlier than the query period.
//  2. The lookahead over a similar team's later observations is bounded
//     inclusively by the query period; the sequence learner's cutoff is
//     the query period itself, so it only learns from strictly earlier
//     transitions.
//
// The engines never mutate the store; they only restrict which periods
// are visible to a computation.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agilepath/internal/maturity"
)

// ErrPracticeNotFound indicates a reference to a practice name outside
// the loaded catalog.
var ErrPracticeNotFound = errors.New("practice not found")

// Engine blends similarity and sequence signals into ranked, normalized
// recommendations. Safe for concurrent use: the underlying store is
// immutable and the sub-engines guard their memo caches.
type Engine struct {
	store      *maturity.Store
	similarity *SimilarityEngine
	sequences  *SequenceLearner
	logger     zerolog.Logger
}

// NewEngine creates a recommendation engine with fresh similarity and
// sequence sub-engines over the store.
func NewEngine(store *maturity.Store, logger zerolog.Logger) *Engine {
	return &Engine{
		store:      store,
		similarity: NewSimilarityEngine(store, logger),
		sequences:  NewSequenceLearner(store, logger),
		logger:     logger.With().Str("component", "recommend").Logger(),
	}
}

// Store returns the underlying data store.
func (e *Engine) Store() *maturity.Store {
	return e.store
}

// Similarity returns the similarity sub-engine.
func (e *Engine) Similarity() *SimilarityEngine {
	return e.similarity
}

// Sequences returns the sequence-learner sub-engine.
func (e *Engine) Sequences() *SequenceLearner {
	return e.sequences
}

// Recommend produces up to Params.TopN ranked recommendations for a
// team at a period, consulting only data observable at that period.
//
// Empty output is a valid non-error outcome: no similar teams, no
// learned transitions, or every candidate already at max maturity all
// yield an empty list.
func (e *Engine) Recommend(ctx context.Context, req Request) ([]Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := req.Params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	current, err := e.store.VectorAt(req.Team, req.Period)
	if err != nil {
		return nil, err
	}

	teamPeriods, err := e.store.PeriodsOf(req.Team)
	if err != nil {
		return nil, err
	}
	idx := periodIndex(teamPeriods, req.Period)

	if idx == 0 && !req.AllowFirstPeriods {
		return nil, fmt.Errorf("%w: team %q has no observation before %s",
			ErrInsufficientHistory, req.Team, req.Period)
	}

	simScores, simEvidence, err := e.similarityScores(req.Team, req.Period, params)
	if err != nil {
		return nil, err
	}

	seqScores, seqEvidence := e.sequenceScores(req.Team, req.Period, teamPeriods, idx, current, params)

	// Normalize each signal independently, then blend, then normalize
	// the blend. Normalizing by max is idempotent, so an all-zero or
	// empty map passes through untouched.
	simNorm := normalizeByMax(simScores)
	seqNorm := normalizeByMax(seqScores)

	final := make(map[string]float64, len(simNorm)+len(seqNorm))
	for practice, score := range simNorm {
		final[practice] += params.SimilarityWeight * score
	}
	for practice, score := range seqNorm {
		final[practice] += (1 - params.SimilarityWeight) * score
	}
	final = normalizeByMax(final)

	catalog := e.store.Catalog()
	recommendations := make([]Recommendation, 0, len(final))
	for practice, score := range final {
		position, ok := catalog.Index(practice)
		if !ok {
			continue
		}
		level := current[position]
		if level >= 1.0 {
			// Already at max maturity; nothing left to adopt.
			continue
		}
		recommendations = append(recommendations, Recommendation{
			Practice:     practice,
			Score:        score,
			CurrentLevel: level,
			SimilarTeams: simEvidence[practice],
			Transitions:  seqEvidence[practice],
		})
	}

	sort.Slice(recommendations, func(i, j int) bool {
		if recommendations[i].Score != recommendations[j].Score {
			return recommendations[i].Score > recommendations[j].Score
		}
		return recommendations[i].Practice < recommendations[j].Practice
	})

	if len(recommendations) > params.TopN {
		recommendations = recommendations[:params.TopN]
	}

	e.logger.Debug().
		Str("team", req.Team).
		Str("period", req.Period.String()).
		Int("returned", len(recommendations)).
		Msg("recommendation complete")

	return recommendations, nil
}

// similarityScores accumulates per-practice scores from what similar
// teams went on to improve after the period at which they were similar.
//
// For each match, the lookahead walks up to LookaheadPeriods of the
// matched team's own subsequent observations, stopping at the first one
// past the query period: observations at the query period itself are
// still usable, anything later never is. The maximum improvement per
// practice across the window is weighted by the match's similarity.
func (e *Engine) similarityScores(team string, period maturity.Period, params Params) (map[string]float64, map[string][]SimilarMatch, error) {
	matches, err := e.similarity.FindSimilar(team, period, params.KSimilar, params.MinSimilarity)
	if err != nil {
		return nil, nil, err
	}

	catalog := e.store.Catalog()
	scores := make(map[string]float64)
	evidence := make(map[string][]SimilarMatch)

	for _, match := range matches {
		otherPeriods, err := e.store.PeriodsOf(match.Team)
		if err != nil {
			continue
		}
		histIdx := periodIndex(otherPeriods, match.Period)
		if histIdx < 0 {
			continue
		}

		base, err := e.store.VectorAt(match.Team, match.Period)
		if err != nil {
			continue
		}

		// Max improvement per practice across the window; improvements
		// do not land every period.
		best := make(map[string]float64)
		for ahead := 1; ahead <= params.LookaheadPeriods; ahead++ {
			if histIdx+ahead >= len(otherPeriods) {
				break
			}
			future := otherPeriods[histIdx+ahead]
			if future.After(period) {
				break
			}
			futureVector, err := e.store.VectorAt(match.Team, future)
			if err != nil {
				break
			}
			for j := range base {
				if futureVector[j] > base[j] {
					name := catalog.Name(j)
					if magnitude := futureVector[j] - base[j]; magnitude > best[name] {
						best[name] = magnitude
					}
				}
			}
		}

		for name, magnitude := range best {
			scores[name] += match.Score * magnitude
			evidence[name] = append(evidence[name], match)
		}
	}

	return scores, evidence, nil
}

// sequenceScores accumulates per-practice scores from transitions that
// typically follow the query team's own recent improvements. The
// learner's cutoff is the query period, so only strictly earlier
// transitions are ever consulted.
func (e *Engine) sequenceScores(team string, period maturity.Period, teamPeriods []maturity.Period, idx int, current []float64, params Params) (map[string]float64, map[string][]TransitionEntry) {
	catalog := e.store.Catalog()

	var recent []string
	seen := make(map[string]struct{})
	stepsBack := params.RecentPeriods
	if idx < stepsBack {
		stepsBack = idx
	}
	for back := 1; back <= stepsBack; back++ {
		past, err := e.store.VectorAt(team, teamPeriods[idx-back])
		if err != nil {
			continue
		}
		for j := range past {
			if current[j] > past[j] {
				name := catalog.Name(j)
				if _, dup := seen[name]; !dup {
					seen[name] = struct{}{}
					recent = append(recent, name)
				}
			}
		}
	}

	table := e.sequences.Learn(period)
	scores := make(map[string]float64)
	evidence := make(map[string][]TransitionEntry)

	for _, from := range recent {
		for _, entry := range table.Outgoing(from) {
			scores[entry.To] += entry.Probability
			evidence[entry.To] = append(evidence[entry.To], entry)
		}
	}

	return scores, evidence
}

// normalizeByMax divides every entry by the map's maximum. Empty maps
// and all-zero maps pass through unchanged, so applying it twice is a
// no-op.
func normalizeByMax(scores map[string]float64) map[string]float64 {
	var maxScore float64
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore == 0 {
		return scores
	}

	normalized := make(map[string]float64, len(scores))
	for practice, score := range scores {
		normalized[practice] = score / maxScore
	}
	return normalized
}

// periodIndex returns the position of period in an ascending slice, or
// -1 when absent.
func periodIndex(periods []maturity.Period, period maturity.Period) int {
	lo, hi := 0, len(periods)
	for lo < hi {
		mid := (lo + hi) / 2
		if periods[mid] < period {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(periods) && periods[lo] == period {
		return lo
	}
	return -1
}

// Explanation describes why one practice scored for a team/period.
type Explanation struct {
	// Practice is the practice being explained.
	Practice string `json:"practice"`

	// CurrentLevel is the team's normalized level for this practice.
	CurrentLevel float64 `json:"current_level"`

	// SimilarTeams lists matches that improved this practice within the
	// lookahead window.
	SimilarTeams []SimilarMatch `json:"similar_teams"`

	// TotalSimilarChecked is how many similar teams were examined.
	TotalSimilarChecked int `json:"total_similar_checked"`

	// TypicalFollows lists what typically follows this practice.
	TypicalFollows []PracticeProb `json:"typical_follows,omitempty"`

	// SequenceBoost reports whether the team's recent improvements lead
	// to this practice in the learned table.
	SequenceBoost bool `json:"sequence_boost"`
}

// Explain reports which similar teams and transitions support
// recommending a practice for a team at a period. Uses the same
// leakage boundaries as Recommend.
func (e *Engine) Explain(ctx context.Context, req Request, practice string) (*Explanation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := req.Params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	catalog := e.store.Catalog()
	position, ok := catalog.Index(practice)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPracticeNotFound, practice)
	}

	current, err := e.store.VectorAt(req.Team, req.Period)
	if err != nil {
		return nil, err
	}
	teamPeriods, err := e.store.PeriodsOf(req.Team)
	if err != nil {
		return nil, err
	}
	idx := periodIndex(teamPeriods, req.Period)

	matches, err := e.similarity.FindSimilar(req.Team, req.Period, params.KSimilar, params.MinSimilarity)
	if err != nil {
		return nil, err
	}

	var supporters []SimilarMatch
	for _, match := range matches {
		otherPeriods, err := e.store.PeriodsOf(match.Team)
		if err != nil {
			continue
		}
		histIdx := periodIndex(otherPeriods, match.Period)
		if histIdx < 0 {
			continue
		}
		base, err := e.store.VectorAt(match.Team, match.Period)
		if err != nil {
			continue
		}
		for ahead := 1; ahead <= params.LookaheadPeriods; ahead++ {
			if histIdx+ahead >= len(otherPeriods) {
				break
			}
			future := otherPeriods[histIdx+ahead]
			if future.After(req.Period) {
				break
			}
			futureVector, err := e.store.VectorAt(match.Team, future)
			if err != nil {
				break
			}
			if futureVector[position] > base[position] {
				supporters = append(supporters, match)
				break
			}
		}
	}

	table := e.sequences.Learn(req.Period)

	boost := false
	if idx > 0 {
		_, seqEvidence := e.sequenceScores(req.Team, req.Period, teamPeriods, idx, current, params)
		_, boost = seqEvidence[practice]
	}

	return &Explanation{
		Practice:            practice,
		CurrentLevel:        current[position],
		SimilarTeams:        supporters,
		TotalSimilarChecked: len(matches),
		TypicalFollows:      table.TypicalNext(practice, 3),
		SequenceBoost:       boost,
	}, nil
}
