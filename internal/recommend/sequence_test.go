// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package recommend

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agilepath/internal/maturity"
)

func TestLearnCoImprovedPair(t *testing.T) {
	t.Parallel()

	practices := []string{"ci", "code_review", "pairing", "retrospectives"}
	store := buildStore(t, practices, []maturity.RawObservation{
		{Team: "t1", Period: 10, Levels: []int{0, 0, 0, 0}},
		{Team: "t1", Period: 20, Levels: []int{1, 1, 0, 0}},
	})
	learner := NewSequenceLearner(store, zerolog.Nop())

	table := learner.Learn(30)

	// ci and code_review improved together once, so both ordered pairs
	// exist with count 1 and each row's probability is 1.0.
	for _, pair := range [][2]string{{"ci", "code_review"}, {"code_review", "ci"}} {
		if got := table.Probability(pair[0], pair[1]); !almostEqual(got, 1.0) {
			t.Errorf("Probability(%s, %s) = %v, want 1.0", pair[0], pair[1], got)
		}
	}

	outgoing := table.Outgoing("ci")
	if len(outgoing) != 1 {
		t.Fatalf("Outgoing(ci) = %+v, want one entry", outgoing)
	}
	if outgoing[0].To != "code_review" || outgoing[0].Count != 1 {
		t.Errorf("Outgoing(ci)[0] = %+v, want code_review count 1", outgoing[0])
	}

	if got := table.Probability("pairing", "retrospectives"); got != 0 {
		t.Errorf("unimproved practices should have no transitions, got %v", got)
	}
}

func TestLearnCutoffExcludesLaterTransitions(t *testing.T) {
	t.Parallel()

	store := buildStore(t, []string{"ci", "code_review"}, []maturity.RawObservation{
		{Team: "t1", Period: 10, Levels: []int{0, 0}},
		{Team: "t1", Period: 20, Levels: []int{1, 1}},
		{Team: "t1", Period: 30, Levels: []int{2, 2}},
	})
	learner := NewSequenceLearner(store, zerolog.Nop())

	tests := []struct {
		name      string
		cutoff    maturity.Period
		wantCount int
	}{
		// A transition exists only when its later period is strictly
		// before the cutoff.
		{name: "cutoff before any transition", cutoff: 20, wantCount: 0},
		{name: "cutoff exactly at second period", cutoff: 30, wantCount: 1},
		{name: "cutoff past all transitions", cutoff: 40, wantCount: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			table := learner.Learn(tc.cutoff)
			outgoing := table.Outgoing("ci")
			if tc.wantCount == 0 {
				if len(outgoing) != 0 {
					t.Fatalf("Outgoing(ci) = %+v, want empty", outgoing)
				}
				return
			}
			if len(outgoing) != 1 || outgoing[0].Count != tc.wantCount {
				t.Fatalf("Outgoing(ci) = %+v, want single entry with count %d", outgoing, tc.wantCount)
			}
		})
	}
}

func TestLearnSingleImprovementHasNoPairs(t *testing.T) {
	t.Parallel()

	store := buildStore(t, []string{"ci", "pairing"}, []maturity.RawObservation{
		{Team: "t1", Period: 10, Levels: []int{0, 0}},
		{Team: "t1", Period: 20, Levels: []int{0, 1}},
		{Team: "t1", Period: 30, Levels: []int{0, 2}},
	})
	learner := NewSequenceLearner(store, zerolog.Nop())

	table := learner.Learn(100)

	if entries := table.Entries(1); len(entries) != 0 {
		t.Errorf("lone improvements should produce no transitions, got %+v", entries)
	}

	// The practice still registers as improved, twice.
	freq := table.ImprovementFrequency()
	if freq["pairing"] != 2 {
		t.Errorf("ImprovementFrequency[pairing] = %d, want 2", freq["pairing"])
	}
	if freq["ci"] != 0 {
		t.Errorf("ImprovementFrequency[ci] = %d, want 0", freq["ci"])
	}
}

func TestTypicalNextOrdering(t *testing.T) {
	t.Parallel()

	practices := []string{"ci", "code_review", "pairing"}
	store := buildStore(t, practices, []maturity.RawObservation{
		// Two transitions where ci and code_review improve together, one
		// where ci and pairing do: from ci, code_review is twice as likely.
		{Team: "t1", Period: 10, Levels: []int{0, 0, 0}},
		{Team: "t1", Period: 20, Levels: []int{1, 1, 0}},
		{Team: "t1", Period: 30, Levels: []int{2, 2, 0}},
		{Team: "t2", Period: 10, Levels: []int{0, 0, 0}},
		{Team: "t2", Period: 20, Levels: []int{1, 0, 1}},
	})
	learner := NewSequenceLearner(store, zerolog.Nop())

	table := learner.Learn(100)

	next := table.TypicalNext("ci", 5)
	if len(next) != 2 {
		t.Fatalf("TypicalNext(ci) = %+v, want 2 entries", next)
	}
	if next[0].Practice != "code_review" || !almostEqual(next[0].Probability, 2.0/3.0) {
		t.Errorf("TypicalNext(ci)[0] = %+v, want code_review with 2/3", next[0])
	}
	if next[1].Practice != "pairing" || !almostEqual(next[1].Probability, 1.0/3.0) {
		t.Errorf("TypicalNext(ci)[1] = %+v, want pairing with 1/3", next[1])
	}

	if top := table.TypicalNext("ci", 1); len(top) != 1 || top[0].Practice != "code_review" {
		t.Errorf("TypicalNext(ci, 1) = %+v, want only code_review", top)
	}

	if unknown := table.TypicalNext("pairing", 5); len(unknown) != 1 {
		// pairing improved alongside ci once, so one outgoing entry.
		t.Errorf("TypicalNext(pairing) = %+v, want 1 entry", unknown)
	}
}

func TestLearnMemoization(t *testing.T) {
	t.Parallel()

	store := buildStore(t, []string{"ci", "code_review"}, []maturity.RawObservation{
		{Team: "t1", Period: 10, Levels: []int{0, 0}},
		{Team: "t1", Period: 20, Levels: []int{1, 1}},
	})
	learner := NewSequenceLearner(store, zerolog.Nop())

	first := learner.Learn(30)
	second := learner.Learn(30)
	if first != second {
		t.Error("same cutoff should return the memoized table")
	}

	other := learner.Learn(40)
	if other == first {
		t.Error("different cutoffs must not share a table")
	}
}

func TestTableStats(t *testing.T) {
	t.Parallel()

	store := buildStore(t, []string{"ci", "code_review", "pairing"}, []maturity.RawObservation{
		{Team: "t1", Period: 10, Levels: []int{0, 0, 0}},
		{Team: "t1", Period: 20, Levels: []int{1, 1, 1}},
	})
	learner := NewSequenceLearner(store, zerolog.Nop())

	stats := learner.Learn(100).Stats()

	// Three practices improved together: 3 source rows, 6 ordered pairs.
	if stats.TransitionTypes != 3 {
		t.Errorf("TransitionTypes = %d, want 3", stats.TransitionTypes)
	}
	if stats.TotalTransitions != 6 {
		t.Errorf("TotalTransitions = %d, want 6", stats.TotalTransitions)
	}
	if stats.PracticesImproved != 3 {
		t.Errorf("PracticesImproved = %d, want 3", stats.PracticesImproved)
	}
}
