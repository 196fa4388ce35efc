// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package optimize

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agilepath/internal/backtest"
	"github.com/tomtom215/agilepath/internal/maturity"
	"github.com/tomtom215/agilepath/internal/recommend"
)

func newTestEngine(t *testing.T, observations []maturity.RawObservation) *Engine {
	t.Helper()

	catalog, err := maturity.NewCatalog([]string{"ci", "code_review", "pairing", "retrospectives"})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	store, err := maturity.NewStore(catalog, observations)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	recommender := recommend.NewEngine(store, zerolog.Nop())
	return NewEngine(backtest.NewEngine(recommender, zerolog.Nop()), zerolog.Nop())
}

func sweepFixture() []maturity.RawObservation {
	return []maturity.RawObservation{
		{Team: "alpha", Period: 100, Levels: []int{0, 0, 0, 0}},
		{Team: "alpha", Period: 200, Levels: []int{1, 0, 0, 0}},
		{Team: "alpha", Period: 300, Levels: []int{1, 1, 0, 0}},
		{Team: "alpha", Period: 400, Levels: []int{1, 1, 1, 0}},
		{Team: "alpha", Period: 500, Levels: []int{1, 1, 1, 1}},

		{Team: "mentor", Period: 100, Levels: []int{1, 1, 0, 0}},
		{Team: "mentor", Period: 200, Levels: []int{1, 1, 3, 0}},
	}
}

func TestGridCombinations(t *testing.T) {
	t.Parallel()

	grid := Grid{
		TopN:             []int{2, 3},
		KSimilar:         []int{5},
		SimilarityWeight: []float64{0.5, 0.7},
		LookaheadPeriods: []int{3},
		RecentPeriods:    []int{3},
		MinSimilarity:    []float64{0, 0.75},
	}

	combinations := grid.Combinations()
	if len(combinations) != 8 {
		t.Fatalf("got %d combinations, want 8", len(combinations))
	}
	if grid.Size() != 8 {
		t.Errorf("Size() = %d, want 8", grid.Size())
	}

	// Deterministic order: the same grid expands identically every time.
	again := grid.Combinations()
	for i := range combinations {
		if combinations[i] != again[i] {
			t.Fatalf("combination %d differs between expansions", i)
		}
	}

	seen := make(map[recommend.Params]struct{})
	for _, params := range combinations {
		if _, dup := seen[params]; dup {
			t.Errorf("duplicate combination %+v", params)
		}
		seen[params] = struct{}{}
	}
}

func TestGridDefaults(t *testing.T) {
	t.Parallel()

	var grid Grid
	if grid.Size() != 4*5*3*1*1*3 {
		t.Errorf("default grid Size() = %d, want 180", grid.Size())
	}
}

func TestRunFindsBestCandidate(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, sweepFixture())

	// A tiny grid keeps the sweep fast; MinAccuracy below the fixture's
	// 0.5 overall accuracy so every combination is a valid candidate.
	grid := Grid{
		TopN:             []int{2, 3},
		KSimilar:         []int{19},
		SimilarityWeight: []float64{0.6},
		LookaheadPeriods: []int{3},
		RecentPeriods:    []int{3},
		MinSimilarity:    []float64{0.75},
	}

	result, err := engine.Run(context.Background(), grid, Options{
		MinAccuracy: 0.1,
		// Gap thresholds above 1 so nothing can stop the sweep early.
		EarlyStopGap:       2,
		EarlyStopMinTested: 1,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Cancelled || result.EarlyStopped {
		t.Errorf("unexpected flags in %+v", result)
	}
	if result.CombinationsTotal != 2 || result.CombinationsTested != 2 {
		t.Errorf("tested %d/%d, want 2/2", result.CombinationsTested, result.CombinationsTotal)
	}
	if result.Best == nil {
		t.Fatal("no best candidate found")
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(result.Candidates))
	}

	// Candidates are ranked by improvement gap; the best is the head.
	if result.Candidates[0].ImprovementGap < result.Candidates[1].ImprovementGap {
		t.Errorf("candidates not sorted by gap: %+v", result.Candidates)
	}
	if result.Best.ImprovementGap != result.Candidates[0].ImprovementGap {
		t.Errorf("Best gap %v != head candidate gap %v",
			result.Best.ImprovementGap, result.Candidates[0].ImprovementGap)
	}
}

func TestRunMinAccuracyFilter(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, sweepFixture())

	result, err := engine.Run(context.Background(), Grid{
		TopN:             []int{2},
		KSimilar:         []int{19},
		SimilarityWeight: []float64{0.6},
		LookaheadPeriods: []int{3},
		RecentPeriods:    []int{3},
		MinSimilarity:    []float64{0.75},
	}, Options{MinAccuracy: 0.99})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Best != nil || len(result.Candidates) != 0 {
		t.Errorf("threshold 0.99 should reject everything, got %+v", result)
	}
	if result.CombinationsTested != 1 {
		t.Errorf("CombinationsTested = %d, want 1", result.CombinationsTested)
	}
}

func TestRunInsufficientData(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, []maturity.RawObservation{
		{Team: "alpha", Period: 100, Levels: []int{0, 0, 0, 0}},
		{Team: "alpha", Period: 200, Levels: []int{1, 0, 0, 0}},
	})

	_, err := engine.Run(context.Background(), Grid{}, Options{})
	if !errors.Is(err, backtest.ErrInsufficientData) {
		t.Fatalf("got %v, want ErrInsufficientData", err)
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, sweepFixture())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := engine.Run(ctx, Grid{}, Options{})
	if err != nil {
		t.Fatalf("cancelled sweep should return a partial result, got %v", err)
	}
	if !result.Cancelled {
		t.Error("result not flagged Cancelled")
	}
	if result.Best != nil || result.CombinationsTested != 0 {
		t.Errorf("pre-cancelled sweep did work: %+v", result)
	}
}
