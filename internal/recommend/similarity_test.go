// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package recommend

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agilepath/internal/maturity"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func buildStore(t *testing.T, practices []string, observations []maturity.RawObservation) *maturity.Store {
	t.Helper()

	catalog, err := maturity.NewCatalog(practices)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	store, err := maturity.NewStore(catalog, observations)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestFindSimilarExactMatch(t *testing.T) {
	t.Parallel()

	practices := []string{"ci", "code_review", "pairing", "retrospectives"}
	store := buildStore(t, practices, []maturity.RawObservation{
		{Team: "query", Period: 90, Levels: []int{3, 2, 1, 0}},
		{Team: "query", Period: 100, Levels: []int{3, 2, 1, 0}},
		{Team: "twin", Period: 80, Levels: []int{3, 2, 1, 0}},
		{Team: "twin", Period: 95, Levels: []int{3, 2, 1, 0}},
		{Team: "same-period", Period: 100, Levels: []int{3, 2, 1, 0}},
		{Team: "future", Period: 110, Levels: []int{3, 2, 1, 0}},
		{Team: "zero", Period: 95, Levels: []int{0, 0, 0, 0}},
	})
	engine := NewSimilarityEngine(store, zerolog.Nop())

	matches, err := engine.FindSimilar("query", 100, 10, 0.5)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}

	// twin's identical vector scores 1.0 and the query team's own
	// earlier period is also a legitimate candidate. Identical vectors
	// at exactly period 100 or later must never appear.
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(matches), matches)
	}

	for _, m := range matches {
		if m.Team == "same-period" || m.Team == "future" {
			t.Errorf("leaked non-earlier observation: %+v", m)
		}
		if m.Team == "zero" {
			t.Errorf("zero-norm candidate should score 0 and be filtered: %+v", m)
		}
		if !almostEqual(m.Score, 1.0) {
			t.Errorf("identical vector scored %v, want 1.0", m.Score)
		}
	}

	// Equal scores break ties by more recent period: twin@95 over query@90.
	if matches[0].Team != "twin" || matches[0].Period != 95 {
		t.Errorf("first match = %+v, want twin@95", matches[0])
	}
	if matches[1].Team != "query" || matches[1].Period != 90 {
		t.Errorf("second match = %+v, want query@90", matches[1])
	}

	// twin matched at two periods with equal scores; only the more
	// recent occurrence survives the per-team dedupe.
	twinCount := 0
	for _, m := range matches {
		if m.Team == "twin" {
			twinCount++
		}
	}
	if twinCount != 1 {
		t.Errorf("twin appeared %d times, want 1", twinCount)
	}
}

func TestFindSimilarErrors(t *testing.T) {
	t.Parallel()

	store := buildStore(t, []string{"ci"}, []maturity.RawObservation{
		{Team: "alpha", Period: 100, Levels: []int{2}},
	})
	engine := NewSimilarityEngine(store, zerolog.Nop())

	tests := []struct {
		name    string
		team    string
		period  maturity.Period
		k       int
		wantErr error
	}{
		{name: "unknown team", team: "ghost", period: 100, k: 5, wantErr: maturity.ErrTeamNotFound},
		{name: "unknown period", team: "alpha", period: 999, k: 5, wantErr: maturity.ErrPeriodNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := engine.FindSimilar(tc.team, tc.period, tc.k, 0)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got error %v, want %v", err, tc.wantErr)
			}
		})
	}

	if _, err := engine.FindSimilar("alpha", 100, 0, 0); err == nil {
		t.Error("k=0 should be rejected")
	}
}

func TestFindSimilarNoEarlierData(t *testing.T) {
	t.Parallel()

	store := buildStore(t, []string{"ci", "pairing"}, []maturity.RawObservation{
		{Team: "alpha", Period: 100, Levels: []int{2, 1}},
		{Team: "bravo", Period: 100, Levels: []int{2, 1}},
	})
	engine := NewSimilarityEngine(store, zerolog.Nop())

	matches, err := engine.FindSimilar("alpha", 100, 5, 0)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("earliest global period should yield no candidates, got %+v", matches)
	}
}

func TestFindSimilarMinSimilarityFilter(t *testing.T) {
	t.Parallel()

	store := buildStore(t, []string{"ci", "code_review"}, []maturity.RawObservation{
		{Team: "query", Period: 100, Levels: []int{3, 0}},
		{Team: "close", Period: 90, Levels: []int{3, 1}},
		{Team: "far", Period: 90, Levels: []int{0, 3}},
	})
	engine := NewSimilarityEngine(store, zerolog.Nop())

	matches, err := engine.FindSimilar("query", 100, 5, 0.75)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}

	if len(matches) != 1 || matches[0].Team != "close" {
		t.Fatalf("got %+v, want only team close", matches)
	}

	// Dropping the threshold admits the orthogonal-ish candidate too.
	matches, err = engine.FindSimilar("query", 100, 5, 0)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("got %d matches with no threshold, want 2", len(matches))
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{name: "identical", a: []float64{1, 0.5, 0.25}, b: []float64{1, 0.5, 0.25}, want: 1},
		{name: "scaled", a: []float64{1, 0.5}, b: []float64{0.5, 0.25}, want: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "zero norm left", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
		{name: "zero norm right", a: []float64{1, 1}, b: []float64{0, 0}, want: 0},
		{name: "length mismatch", a: []float64{1}, b: []float64{1, 1}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := cosineSimilarity(tc.a, tc.b); !almostEqual(got, tc.want) {
				t.Errorf("cosineSimilarity(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestFindSimilarMemoization(t *testing.T) {
	t.Parallel()

	store := buildStore(t, []string{"ci"}, []maturity.RawObservation{
		{Team: "alpha", Period: 100, Levels: []int{2}},
		{Team: "bravo", Period: 90, Levels: []int{2}},
	})
	engine := NewSimilarityEngine(store, zerolog.Nop())

	first, err := engine.FindSimilar("alpha", 100, 5, 0)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	second, err := engine.FindSimilar("alpha", 100, 5, 0)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("memoized result differs: %+v vs %+v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("match %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
