// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

// Package maturity holds the temporal data model: the closed practice
// catalog and the per-team history of normalized maturity vectors,
// keyed by period.
//
// The store is built once at load time and is read-only for the rest of
// the process. Derived computations (similarity search, sequence
// learning, backtesting) never mutate it; they only restrict which
// periods of it are visible via a cutoff parameter.
package maturity

import (
	"fmt"
	"math"
	"sort"
)

// RawObservation is one loaded data point: a team's integer 0-3
// maturity levels for every tracked practice at one period.
type RawObservation struct {
	Team   string
	Period Period
	Levels []int
}

// Store maps each team to its ordered-by-period history of normalized
// maturity vectors. Immutable after construction.
type Store struct {
	catalog *Catalog
	teams   map[string]*teamHistory
	names   []string // team names, sorted for deterministic iteration
	periods []Period // union of all observed periods, ascending
}

// teamHistory is one team's period-ordered vectors.
type teamHistory struct {
	periods []Period // ascending
	vectors map[Period][]float64
}

// NewStore validates and normalizes raw observations into a read-only
// store. Each vector must have exactly catalog.Len() components with
// levels in [0, MaxLevel]; at most one vector per (team, period) is
// allowed. Violations return ErrSchema.
func NewStore(catalog *Catalog, observations []RawObservation) (*Store, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: nil catalog", ErrSchema)
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: no observations", ErrSchema)
	}

	teams := make(map[string]*teamHistory)
	periodSet := make(map[Period]struct{})

	for _, obs := range observations {
		if obs.Team == "" {
			return nil, fmt.Errorf("%w: observation at period %s has empty team name", ErrSchema, obs.Period)
		}
		if obs.Period <= 0 {
			return nil, fmt.Errorf("%w: team %q has non-positive period %d", ErrSchema, obs.Team, int(obs.Period))
		}
		if len(obs.Levels) != catalog.Len() {
			return nil, fmt.Errorf("%w: team %q period %s has %d levels, want %d",
				ErrSchema, obs.Team, obs.Period, len(obs.Levels), catalog.Len())
		}

		vector := make([]float64, len(obs.Levels))
		for i, level := range obs.Levels {
			if level < 0 || level > MaxLevel {
				return nil, fmt.Errorf("%w: team %q period %s practice %q has level %d outside [0,%d]",
					ErrSchema, obs.Team, obs.Period, catalog.Name(i), level, MaxLevel)
			}
			vector[i] = float64(level) / float64(MaxLevel)
		}

		history := teams[obs.Team]
		if history == nil {
			history = &teamHistory{vectors: make(map[Period][]float64)}
			teams[obs.Team] = history
		}
		if _, dup := history.vectors[obs.Period]; dup {
			return nil, fmt.Errorf("%w: duplicate observation for team %q at period %s",
				ErrSchema, obs.Team, obs.Period)
		}
		history.vectors[obs.Period] = vector
		history.periods = append(history.periods, obs.Period)
		periodSet[obs.Period] = struct{}{}
	}

	names := make([]string, 0, len(teams))
	for name, history := range teams {
		sort.Slice(history.periods, func(i, j int) bool { return history.periods[i] < history.periods[j] })
		names = append(names, name)
	}
	sort.Strings(names)

	periods := make([]Period, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })

	return &Store{
		catalog: catalog,
		teams:   teams,
		names:   names,
		periods: periods,
	}, nil
}

// Catalog returns the practice catalog this store was built against.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Teams returns all team names in sorted order.
// The returned slice must not be modified.
func (s *Store) Teams() []string {
	return s.names
}

// HasTeam reports whether the store holds any history for the team.
func (s *Store) HasTeam(team string) bool {
	_, ok := s.teams[team]
	return ok
}

// Periods returns the union of all observed periods, ascending.
// The returned slice must not be modified.
func (s *Store) Periods() []Period {
	return s.periods
}

// PeriodsOf returns the team's observed periods, ascending.
// The returned slice must not be modified.
func (s *Store) PeriodsOf(team string) ([]Period, error) {
	history, ok := s.teams[team]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTeamNotFound, team)
	}
	return history.periods, nil
}

// VectorAt returns the team's normalized maturity vector at a period.
// The returned slice is the store's own copy and must not be modified.
func (s *Store) VectorAt(team string, period Period) ([]float64, error) {
	history, ok := s.teams[team]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTeamNotFound, team)
	}
	vector, ok := history.vectors[period]
	if !ok {
		return nil, fmt.Errorf("%w: team %q has no vector at %s", ErrPeriodNotFound, team, period)
	}
	return vector, nil
}

// HasObservation reports whether the team has a vector at the period.
func (s *Store) HasObservation(team string, period Period) bool {
	history, ok := s.teams[team]
	if !ok {
		return false
	}
	_, ok = history.vectors[period]
	return ok
}

// Stats summarizes the distribution of all normalized values in the store.
type Stats struct {
	Teams     int     `json:"teams"`
	Practices int     `json:"practices"`
	Periods   int     `json:"periods"`
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// Stats computes summary statistics over every vector component loaded.
func (s *Store) Stats() Stats {
	var sum, count float64
	minVal, maxVal := math.Inf(1), math.Inf(-1)

	for _, history := range s.teams {
		for _, vector := range history.vectors {
			for _, v := range vector {
				sum += v
				count++
				if v < minVal {
					minVal = v
				}
				if v > maxVal {
					maxVal = v
				}
			}
		}
	}

	stats := Stats{
		Teams:     len(s.teams),
		Practices: s.catalog.Len(),
		Periods:   len(s.periods),
	}
	if count == 0 {
		return stats
	}

	mean := sum / count
	var sqDiff float64
	for _, history := range s.teams {
		for _, vector := range history.vectors {
			for _, v := range vector {
				sqDiff += (v - mean) * (v - mean)
			}
		}
	}

	stats.Mean = mean
	stats.Std = math.Sqrt(sqDiff / count)
	stats.Min = minVal
	stats.Max = maxVal
	return stats
}
