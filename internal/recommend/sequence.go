// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package recommend

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agilepath/internal/maturity"
)

// SequenceLearner builds practice-to-practice transition tables from
// observed consecutive-period improvements, Markov-chain style.
//
// For every team and every pair of consecutive observed periods
// (p1 < p2) with p2 strictly before the cutoff, the learner computes
// the set of practices whose normalized value strictly increased. Every
// ordered pair (A, B) of distinct practices in that improved set counts
// one A→B transition: the table captures "improved together"
// co-occurrence, not position within the set.
//
// Tables are memoized per cutoff. A table can never contain a
// transition whose later period is at or past its cutoff.
type SequenceLearner struct {
	store  *maturity.Store
	logger zerolog.Logger

	mu    sync.RWMutex
	cache map[maturity.Period]*TransitionTable
}

// NewSequenceLearner creates a sequence learner over the store.
func NewSequenceLearner(store *maturity.Store, logger zerolog.Logger) *SequenceLearner {
	return &SequenceLearner{
		store:  store,
		logger: logger.With().Str("component", "sequence").Logger(),
		cache:  make(map[maturity.Period]*TransitionTable),
	}
}

// Learn returns the transition table for the given cutoff, building it
// on first use. The returned table is immutable and shared; callers
// must not modify it.
func (l *SequenceLearner) Learn(cutoff maturity.Period) *TransitionTable {
	l.mu.RLock()
	table, ok := l.cache[cutoff]
	l.mu.RUnlock()
	if ok {
		return table
	}

	table = l.build(cutoff)

	l.mu.Lock()
	l.cache[cutoff] = table
	l.mu.Unlock()

	l.logger.Debug().
		Str("cutoff", cutoff.String()).
		Int("sources", len(table.counts)).
		Msg("learned transition table")

	return table
}

func (l *SequenceLearner) build(cutoff maturity.Period) *TransitionTable {
	catalog := l.store.Catalog()
	table := &TransitionTable{
		cutoff:          cutoff,
		counts:          make(map[string]map[string]int),
		totals:          make(map[string]int),
		improvementFreq: make(map[string]int),
	}

	for _, team := range l.store.Teams() {
		periods, err := l.store.PeriodsOf(team)
		if err != nil {
			continue
		}

		for i := 0; i+1 < len(periods); i++ {
			p1, p2 := periods[i], periods[i+1]
			if !p2.Before(cutoff) {
				break
			}

			v1, err1 := l.store.VectorAt(team, p1)
			v2, err2 := l.store.VectorAt(team, p2)
			if err1 != nil || err2 != nil {
				continue
			}

			var improved []string
			for j := range v1 {
				if v2[j] > v1[j] {
					name := catalog.Name(j)
					improved = append(improved, name)
					table.improvementFreq[name]++
				}
			}

			// All ordered pairs of distinct improved practices count.
			for _, from := range improved {
				for _, to := range improved {
					if from == to {
						continue
					}
					row := table.counts[from]
					if row == nil {
						row = make(map[string]int)
						table.counts[from] = row
					}
					row[to]++
					table.totals[from]++
				}
			}
		}
	}

	return table
}

// TransitionTable is an immutable transition-probability table learned
// for one cutoff.
type TransitionTable struct {
	cutoff          maturity.Period
	counts          map[string]map[string]int
	totals          map[string]int
	improvementFreq map[string]int
}

// Cutoff returns the exclusive upper period bound this table was
// learned under.
func (t *TransitionTable) Cutoff() maturity.Period {
	return t.cutoff
}

// Probability returns P(to | from): the fraction of from's outgoing
// transitions that lead to to. Zero when from has no outgoing
// transitions.
func (t *TransitionTable) Probability(from, to string) float64 {
	total := t.totals[from]
	if total == 0 {
		return 0
	}
	return float64(t.counts[from][to]) / float64(total)
}

// TypicalNext returns up to topN practices that typically follow the
// given practice, ordered by probability descending with ties broken by
// name. A practice with no outgoing transitions yields an empty list.
func (t *TransitionTable) TypicalNext(practice string, topN int) []PracticeProb {
	row := t.counts[practice]
	total := t.totals[practice]
	if len(row) == 0 || total == 0 {
		return nil
	}

	next := make([]PracticeProb, 0, len(row))
	for to, count := range row {
		next = append(next, PracticeProb{
			Practice:    to,
			Probability: float64(count) / float64(total),
		})
	}

	sort.Slice(next, func(i, j int) bool {
		if next[i].Probability != next[j].Probability {
			return next[i].Probability > next[j].Probability
		}
		return next[i].Practice < next[j].Practice
	})

	if topN > 0 && len(next) > topN {
		next = next[:topN]
	}
	return next
}

// Outgoing returns every transition leaving the given practice as
// TransitionEntry values, ordered by probability descending with ties
// broken by target name. Empty when the practice never led anywhere.
func (t *TransitionTable) Outgoing(practice string) []TransitionEntry {
	row := t.counts[practice]
	total := t.totals[practice]
	if len(row) == 0 || total == 0 {
		return nil
	}

	entries := make([]TransitionEntry, 0, len(row))
	for to, count := range row {
		entries = append(entries, TransitionEntry{
			From:        practice,
			To:          to,
			Count:       count,
			Probability: float64(count) / float64(total),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Probability != entries[j].Probability {
			return entries[i].Probability > entries[j].Probability
		}
		return entries[i].To < entries[j].To
	})
	return entries
}

// Entries returns all learned transitions occurring at least minCount
// times, sorted by count descending, then probability descending, then
// names for determinism.
func (t *TransitionTable) Entries(minCount int) []TransitionEntry {
	if minCount < 1 {
		minCount = 1
	}

	var entries []TransitionEntry
	for from, row := range t.counts {
		total := t.totals[from]
		if total == 0 {
			continue
		}
		for to, count := range row {
			if count < minCount {
				continue
			}
			entries = append(entries, TransitionEntry{
				From:        from,
				To:          to,
				Count:       count,
				Probability: float64(count) / float64(total),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		if entries[i].Probability != entries[j].Probability {
			return entries[i].Probability > entries[j].Probability
		}
		if entries[i].From != entries[j].From {
			return entries[i].From < entries[j].From
		}
		return entries[i].To < entries[j].To
	})
	return entries
}

// ImprovementFrequency returns how often each practice improved across
// the organization, up to the table's cutoff.
func (t *TransitionTable) ImprovementFrequency() map[string]int {
	freq := make(map[string]int, len(t.improvementFreq))
	for name, count := range t.improvementFreq {
		freq[name] = count
	}
	return freq
}

// TableStats summarizes a learned transition table.
type TableStats struct {
	TransitionTypes   int `json:"transition_types"`
	TotalTransitions  int `json:"total_transitions"`
	PracticesImproved int `json:"practices_improved"`
}

// Stats returns summary statistics about the table.
func (t *TransitionTable) Stats() TableStats {
	total := 0
	for _, n := range t.totals {
		total += n
	}
	return TableStats{
		TransitionTypes:   len(t.counts),
		TotalTransitions:  total,
		PracticesImproved: len(t.improvementFreq),
	}
}
