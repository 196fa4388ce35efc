// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/agilepath/internal/maturity"
	"github.com/tomtom215/agilepath/internal/metrics"
	"github.com/tomtom215/agilepath/internal/recommend"
)

// RecommendRequest is the body for the recommendations endpoint.
// Params knobs left at zero inherit the configured defaults.
type RecommendRequest struct {
	Team              string           `json:"team" validate:"required"`
	Period            int              `json:"period" validate:"required"`
	Params            recommend.Params `json:"params"`
	AllowFirstPeriods bool             `json:"allow_first_periods"`
}

// RecommendResponse is the payload for recommendation queries.
type RecommendResponse struct {
	Team            string                     `json:"team"`
	Period          maturity.Period            `json:"period"`
	Params          recommend.Params           `json:"params"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// Recommendations generates ranked practice suggestions for a team.
//
// Method: POST
// Path: /api/v1/recommendations
//
// Request Body: RecommendRequest
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecommendRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	h.respondRecommendations(rw, r, recommend.Request{
		Team:              req.Team,
		Period:            maturity.Period(req.Period),
		Params:            h.mergeParams(req.Params),
		AllowFirstPeriods: req.AllowFirstPeriods,
	})
}

// TeamRecommendations is the GET variant for dashboards; tuning knobs
// come from query parameters and fall back to configured defaults.
//
// Method: GET
// Path: /api/v1/teams/{team}/recommendations?period=N&top_n=N
func (h *Handler) TeamRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	team := chi.URLParam(r, "team")

	period, ok := queryPeriod(rw, r)
	if !ok {
		return
	}

	params := h.defaults
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		topN, err := strconv.Atoi(raw)
		if err != nil {
			rw.BadRequest("top_n must be an integer")
			return
		}
		params.TopN = topN
	}

	h.respondRecommendations(rw, r, recommend.Request{
		Team:   team,
		Period: period,
		Params: params,
	})
}

func (h *Handler) respondRecommendations(rw *ResponseWriter, r *http.Request, req recommend.Request) {
	start := time.Now()
	recommendations, err := h.recommender.Recommend(r.Context(), req)
	if err != nil {
		metrics.RecordRecommendation(recommendOutcome(err), time.Since(start))
		respondDomainError(rw, r, err)
		return
	}
	metrics.RecordRecommendation("ok", time.Since(start))

	rw.Success(RecommendResponse{
		Team:            req.Team,
		Period:          req.Period,
		Params:          req.Params.WithDefaults(),
		Recommendations: recommendations,
	})
}

// Explain reports the evidence behind recommending one practice.
//
// Method: GET
// Path: /api/v1/teams/{team}/practices/{practice}/explanation?period=N
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	team := chi.URLParam(r, "team")
	practice := chi.URLParam(r, "practice")

	period, ok := queryPeriod(rw, r)
	if !ok {
		return
	}

	explanation, err := h.recommender.Explain(r.Context(), recommend.Request{
		Team:   team,
		Period: period,
		Params: h.defaults,
	}, practice)
	if err != nil {
		respondDomainError(rw, r, err)
		return
	}

	rw.Success(explanation)
}

// queryPeriod parses the required period query parameter.
func queryPeriod(rw *ResponseWriter, r *http.Request) (maturity.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		rw.BadRequest("period query parameter is required")
		return 0, false
	}
	period, err := strconv.Atoi(raw)
	if err != nil {
		rw.BadRequest("period must be an integer")
		return 0, false
	}
	return maturity.Period(period), true
}

func recommendOutcome(err error) string {
	switch {
	case errors.Is(err, recommend.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, maturity.ErrTeamNotFound), errors.Is(err, maturity.ErrPeriodNotFound):
		return "not_found"
	default:
		return "error"
	}
}
