// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/agilepath/internal/maturity"
	"github.com/tomtom215/agilepath/internal/recommend"
)

// TransitionsResponse is the payload for the learned transition table.
type TransitionsResponse struct {
	Cutoff  maturity.Period             `json:"cutoff"`
	Stats   recommend.TableStats        `json:"stats"`
	Entries []recommend.TransitionEntry `json:"entries"`
}

// TypicalNextResponse lists what typically follows one practice.
type TypicalNextResponse struct {
	Practice string                  `json:"practice"`
	Cutoff   maturity.Period         `json:"cutoff"`
	Next     []recommend.PracticeProb `json:"next"`
}

// Transitions exposes the learned practice transition table. Without a
// cutoff parameter the table is learned over the full dataset.
//
// Method: GET
// Path: /api/v1/sequences/transitions?cutoff=N&min_count=N
func (h *Handler) Transitions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	cutoff, ok := h.queryCutoff(rw, r)
	if !ok {
		return
	}

	minCount := 1
	if raw := r.URL.Query().Get("min_count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			rw.BadRequest("min_count must be a positive integer")
			return
		}
		minCount = parsed
	}

	table := h.recommender.Sequences().Learn(cutoff)

	rw.Success(TransitionsResponse{
		Cutoff:  cutoff,
		Stats:   table.Stats(),
		Entries: table.Entries(minCount),
	})
}

// TypicalNext reports the practices that most often improve after the
// given one, by learned transition probability.
//
// Method: GET
// Path: /api/v1/sequences/transitions/{practice}?cutoff=N&top_n=N
func (h *Handler) TypicalNext(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	practice := chi.URLParam(r, "practice")

	if _, ok := h.store.Catalog().Index(practice); !ok {
		rw.NotFound("unknown practice: " + practice)
		return
	}

	cutoff, ok := h.queryCutoff(rw, r)
	if !ok {
		return
	}

	topN := 5
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			rw.BadRequest("top_n must be a positive integer")
			return
		}
		topN = parsed
	}

	table := h.recommender.Sequences().Learn(cutoff)

	rw.Success(TypicalNextResponse{
		Practice: practice,
		Cutoff:   cutoff,
		Next:     table.TypicalNext(practice, topN),
	})
}

// queryCutoff parses the optional cutoff parameter. The default sits
// just past the latest observed period so every transition counts.
func (h *Handler) queryCutoff(rw *ResponseWriter, r *http.Request) (maturity.Period, bool) {
	raw := r.URL.Query().Get("cutoff")
	if raw == "" {
		periods := h.store.Periods()
		return periods[len(periods)-1] + 1, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		rw.BadRequest("cutoff must be an integer")
		return 0, false
	}
	return maturity.Period(parsed), true
}
