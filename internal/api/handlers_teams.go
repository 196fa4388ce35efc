// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/agilepath/internal/maturity"
)

// TeamSummary is one row in the teams listing.
type TeamSummary struct {
	Name        string          `json:"name"`
	Periods     int             `json:"periods"`
	FirstPeriod maturity.Period `json:"first_period"`
	LastPeriod  maturity.Period `json:"last_period"`
}

// PeriodLevels is a team's normalized maturity vector at one period.
type PeriodLevels struct {
	Period maturity.Period `json:"period"`
	Levels []float64       `json:"levels"`
}

// TeamPeriodsResponse is the payload for the team periods endpoint.
type TeamPeriodsResponse struct {
	Team      string         `json:"team"`
	Practices []string       `json:"practices"`
	Periods   []PeriodLevels `json:"periods"`
}

// Teams lists every team with its observation span.
//
// Method: GET
// Path: /api/v1/teams
func (h *Handler) Teams(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	names := h.store.Teams()
	summaries := make([]TeamSummary, 0, len(names))
	for _, name := range names {
		periods, err := h.store.PeriodsOf(name)
		if err != nil {
			respondDomainError(rw, r, err)
			return
		}
		summaries = append(summaries, TeamSummary{
			Name:        name,
			Periods:     len(periods),
			FirstPeriod: periods[0],
			LastPeriod:  periods[len(periods)-1],
		})
	}

	rw.Success(summaries)
}

// TeamPeriods returns a team's full observation history.
//
// Method: GET
// Path: /api/v1/teams/{team}/periods
func (h *Handler) TeamPeriods(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	team := chi.URLParam(r, "team")

	periods, err := h.store.PeriodsOf(team)
	if err != nil {
		respondDomainError(rw, r, err)
		return
	}

	history := make([]PeriodLevels, 0, len(periods))
	for _, period := range periods {
		vector, err := h.store.VectorAt(team, period)
		if err != nil {
			respondDomainError(rw, r, err)
			return
		}
		history = append(history, PeriodLevels{Period: period, Levels: vector})
	}

	rw.Success(TeamPeriodsResponse{
		Team:      team,
		Practices: h.store.Catalog().Names(),
		Periods:   history,
	})
}

// Practices lists the practice catalog in vector order.
//
// Method: GET
// Path: /api/v1/practices
func (h *Handler) Practices(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(h.store.Catalog().Names())
}
