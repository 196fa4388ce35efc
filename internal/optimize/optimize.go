// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

// Package optimize finds well-performing recommendation parameters by
// exhaustive grid search, scoring every combination with a full
// backtest and ranking by improvement gap over the random baseline.
package optimize

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agilepath/internal/backtest"
	"github.com/tomtom215/agilepath/internal/recommend"
)

// maxReportedCandidates caps how many valid candidates a Result carries.
const maxReportedCandidates = 50

// Grid defines the parameter values to sweep, one slice per knob. Nil
// or empty dimensions take the tuned default ranges.
type Grid struct {
	TopN             []int     `json:"top_n"`
	KSimilar         []int     `json:"k_similar"`
	SimilarityWeight []float64 `json:"similarity_weight"`
	LookaheadPeriods []int     `json:"lookahead_periods"`
	RecentPeriods    []int     `json:"recent_periods"`
	MinSimilarity    []float64 `json:"min_similarity"`
}

// DefaultGrid returns the ranges worth sweeping in practice; lookahead
// and recent windows stay fixed since varying them has not paid off.
func DefaultGrid() Grid {
	return Grid{
		TopN:             []int{2, 3, 4, 5},
		KSimilar:         []int{5, 10, 15, 19, 20},
		SimilarityWeight: []float64{0.6, 0.7, 0.8},
		LookaheadPeriods: []int{3},
		RecentPeriods:    []int{3},
		MinSimilarity:    []float64{0, 0.5, 0.75},
	}
}

func (g Grid) withDefaults() Grid {
	defaults := DefaultGrid()
	if len(g.TopN) == 0 {
		g.TopN = defaults.TopN
	}
	if len(g.KSimilar) == 0 {
		g.KSimilar = defaults.KSimilar
	}
	if len(g.SimilarityWeight) == 0 {
		g.SimilarityWeight = defaults.SimilarityWeight
	}
	if len(g.LookaheadPeriods) == 0 {
		g.LookaheadPeriods = defaults.LookaheadPeriods
	}
	if len(g.RecentPeriods) == 0 {
		g.RecentPeriods = defaults.RecentPeriods
	}
	if len(g.MinSimilarity) == 0 {
		g.MinSimilarity = defaults.MinSimilarity
	}
	return g
}

// Combinations expands the grid into every parameter combination, in a
// fixed deterministic order.
func (g Grid) Combinations() []recommend.Params {
	g = g.withDefaults()

	combinations := make([]recommend.Params, 0, g.Size())
	for _, topN := range g.TopN {
		for _, weight := range g.SimilarityWeight {
			for _, k := range g.KSimilar {
				for _, lookahead := range g.LookaheadPeriods {
					for _, recent := range g.RecentPeriods {
						for _, minSim := range g.MinSimilarity {
							combinations = append(combinations, recommend.Params{
								TopN:             topN,
								KSimilar:         k,
								SimilarityWeight: weight,
								LookaheadPeriods: lookahead,
								RecentPeriods:    recent,
								MinSimilarity:    minSim,
							})
						}
					}
				}
			}
		}
	}
	return combinations
}

// Size returns the number of combinations the grid expands to.
func (g Grid) Size() int {
	g = g.withDefaults()
	return len(g.TopN) * len(g.KSimilar) * len(g.SimilarityWeight) *
		len(g.LookaheadPeriods) * len(g.RecentPeriods) * len(g.MinSimilarity)
}

// Options tunes the sweep itself rather than the recommender.
type Options struct {
	// MinAccuracy is the accuracy a combination must reach to count as
	// valid. Zero means the 0.40 default.
	MinAccuracy float64 `json:"min_accuracy"`

	// EarlyStopGap is the improvement gap that ends the sweep once
	// enough of the grid has been covered. Zero means the 0.25 default.
	EarlyStopGap float64 `json:"early_stop_gap"`

	// EarlyStopMinTested is the fraction of the grid that must be
	// covered before EarlyStopGap applies. Zero means the 0.5 default.
	EarlyStopMinTested float64 `json:"early_stop_min_tested"`
}

func (o Options) withDefaults() Options {
	if o.MinAccuracy == 0 {
		o.MinAccuracy = 0.40
	}
	if o.EarlyStopGap == 0 {
		o.EarlyStopGap = 0.25
	}
	if o.EarlyStopMinTested == 0 {
		o.EarlyStopMinTested = 0.5
	}
	return o
}

// Gaps beyond these shortcut the early-stop coverage requirements: an
// excellent gap stops immediately, a good one after half the grid.
const (
	excellentGap = 0.30
	goodGap      = 0.20
)

// Candidate is one scored parameter combination.
type Candidate struct {
	Params             recommend.Params `json:"params"`
	Accuracy           float64          `json:"accuracy"`
	RandomBaseline     float64          `json:"random_baseline"`
	ImprovementGap     float64          `json:"improvement_gap"`
	ImprovementFactor  float64          `json:"improvement_factor"`
	TotalPredictions   int              `json:"total_predictions"`
	CorrectPredictions int              `json:"correct_predictions"`
}

// Result is the outcome of one sweep.
type Result struct {
	// Best is the valid candidate with the largest improvement gap, nil
	// when no combination met the accuracy threshold.
	Best *Candidate `json:"best"`

	// Candidates lists valid combinations, best gap first, capped.
	Candidates []Candidate `json:"candidates"`

	// CombinationsTested counts backtests actually started.
	CombinationsTested int `json:"combinations_tested"`

	// CombinationsTotal is the full grid size.
	CombinationsTotal int `json:"combinations_total"`

	// EarlyStopped marks a sweep ended by a good-enough gap.
	EarlyStopped bool `json:"early_stopped"`

	// Cancelled marks a sweep ended by context cancellation; the
	// result covers only the combinations scored before it.
	Cancelled bool `json:"cancelled"`
}

// Engine sweeps parameter grids over a backtest engine.
type Engine struct {
	backtester *backtest.Engine
	logger     zerolog.Logger
}

// NewEngine creates an optimizer over the backtest engine.
func NewEngine(backtester *backtest.Engine, logger zerolog.Logger) *Engine {
	return &Engine{
		backtester: backtester,
		logger:     logger.With().Str("component", "optimize").Logger(),
	}
}

// Run backtests every grid combination and returns the ranked outcome.
//
// Cancellation is cooperative via ctx, checked between combinations and
// inside each backtest; a cancelled sweep returns the partial result
// with Cancelled set. A dataset too small to backtest at all fails with
// backtest.ErrInsufficientData.
func (e *Engine) Run(ctx context.Context, grid Grid, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	combinations := grid.Combinations()

	result := &Result{CombinationsTotal: len(combinations)}
	bestGap := 0.0

	e.logger.Info().
		Int("combinations", len(combinations)).
		Float64("min_accuracy", opts.MinAccuracy).
		Msg("optimization started")

	for i, params := range combinations {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}
		result.CombinationsTested = i + 1

		report, err := e.backtester.Run(ctx, params)
		if err != nil {
			if errors.Is(err, backtest.ErrInsufficientData) {
				// Dataset-level failure; no combination can do better.
				return nil, err
			}
			continue
		}
		if report.Cancelled {
			result.Cancelled = true
			break
		}

		if report.OverallAccuracy < opts.MinAccuracy {
			continue
		}

		candidate := Candidate{
			Params:             params,
			Accuracy:           report.OverallAccuracy,
			RandomBaseline:     report.RandomBaseline,
			ImprovementGap:     report.ImprovementGap,
			ImprovementFactor:  report.ImprovementFactor,
			TotalPredictions:   report.TotalPredictions,
			CorrectPredictions: report.CorrectPredictions,
		}
		result.Candidates = append(result.Candidates, candidate)

		if result.Best == nil || candidate.ImprovementGap > bestGap {
			bestGap = candidate.ImprovementGap
			best := candidate
			result.Best = &best

			tested := float64(i+1) / float64(len(combinations))
			if bestGap > opts.EarlyStopGap && (tested >= opts.EarlyStopMinTested || bestGap > excellentGap) {
				result.EarlyStopped = true
				break
			}
			if bestGap > goodGap && tested >= 0.5 {
				result.EarlyStopped = true
				break
			}
		}
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].ImprovementGap > result.Candidates[j].ImprovementGap
	})
	if len(result.Candidates) > maxReportedCandidates {
		result.Candidates = result.Candidates[:maxReportedCandidates]
	}

	e.logger.Info().
		Int("tested", result.CombinationsTested).
		Int("valid", len(result.Candidates)).
		Bool("early_stopped", result.EarlyStopped).
		Bool("cancelled", result.Cancelled).
		Msg("optimization finished")

	return result, nil
}
