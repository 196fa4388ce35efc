// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package recommend

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agilepath/internal/maturity"
)

// SimilarityEngine finds the K most similar (team, past-period)
// observations for a query team/period by cosine similarity over
// maturity vectors.
//
// The candidate pool is every observation across all teams — including
// the query team itself at other periods — whose period is strictly
// earlier than the query period. Strict inequality is the data-leakage
// boundary and is enforced exactly.
//
// Results are memoized per query key. The cache is a pure
// memoized-function map (key to immutable value) owned by the instance,
// safe to drop and recompute.
type SimilarityEngine struct {
	store  *maturity.Store
	logger zerolog.Logger

	mu    sync.RWMutex
	cache map[similarityKey][]SimilarMatch
}

// similarityKey identifies one memoized query. The query period acts as
// the cutoff, so a cached entry can never mix data across cutoffs.
type similarityKey struct {
	team   string
	period maturity.Period
	k      int
	minSim float64
}

// NewSimilarityEngine creates a similarity engine over the store.
func NewSimilarityEngine(store *maturity.Store, logger zerolog.Logger) *SimilarityEngine {
	return &SimilarityEngine{
		store:  store,
		logger: logger.With().Str("component", "similarity").Logger(),
		cache:  make(map[similarityKey][]SimilarMatch),
	}
}

// FindSimilar returns up to k distinct teams whose historical state most
// resembles the query team's state at the query period.
//
// Scores are cosine similarities in [0, 1]; only candidates with score
// >= minSimilarity are returned, ordered by score descending with ties
// broken by more recent period first. If the same team matches at
// several past periods only its highest-scoring occurrence is kept.
//
// An unknown team or a period the team has no vector for is an error.
// A period with no strictly earlier observations anywhere returns an
// empty list: similarity simply cannot be computed yet.
func (e *SimilarityEngine) FindSimilar(team string, period maturity.Period, k int, minSimilarity float64) ([]SimilarMatch, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	queryVector, err := e.store.VectorAt(team, period)
	if err != nil {
		return nil, err
	}

	key := similarityKey{team: team, period: period, k: k, minSim: minSimilarity}
	e.mu.RLock()
	cached, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	matches := e.search(team, period, queryVector, k, minSimilarity)

	e.mu.Lock()
	e.cache[key] = matches
	e.mu.Unlock()

	e.logger.Debug().
		Str("team", team).
		Str("period", period.String()).
		Int("matches", len(matches)).
		Msg("similarity search complete")

	return matches, nil
}

// search scans the full candidate pool. Not cached; callers go through
// FindSimilar.
func (e *SimilarityEngine) search(team string, period maturity.Period, queryVector []float64, k int, minSimilarity float64) []SimilarMatch {
	// Best occurrence per candidate team.
	best := make(map[string]SimilarMatch)

	for _, other := range e.store.Teams() {
		otherPeriods, err := e.store.PeriodsOf(other)
		if err != nil {
			continue
		}
		for _, otherPeriod := range otherPeriods {
			// Strictly earlier only. An observation at exactly the query
			// period must never be a candidate; the query team's own
			// earlier observations are fair game.
			if !otherPeriod.Before(period) {
				break
			}

			otherVector, err := e.store.VectorAt(other, otherPeriod)
			if err != nil {
				continue
			}

			score := cosineSimilarity(queryVector, otherVector)
			if score < minSimilarity {
				continue
			}

			current, seen := best[other]
			if !seen || score > current.Score || (score == current.Score && otherPeriod.After(current.Period)) {
				best[other] = SimilarMatch{Team: other, Period: otherPeriod, Score: score}
			}
		}
	}

	matches := make([]SimilarMatch, 0, len(best))
	for _, m := range best {
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Period != matches[j].Period {
			return matches[i].Period.After(matches[j].Period)
		}
		return matches[i].Team < matches[j].Team
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// cosineSimilarity computes the cosine of the angle between two vectors:
// dot product divided by the product of L2 norms. Defined as 0 when
// either vector has zero norm.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
