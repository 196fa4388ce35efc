// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tomtom215/agilepath/internal/backtest"
	"github.com/tomtom215/agilepath/internal/jobs"
	"github.com/tomtom215/agilepath/internal/maturity"
	"github.com/tomtom215/agilepath/internal/optimize"
	"github.com/tomtom215/agilepath/internal/recommend"
)

// validate is a reusable validator instance
var validate = validator.New()

// Handler holds the dependencies every endpoint needs.
type Handler struct {
	store       *maturity.Store
	recommender *recommend.Engine
	backtester  *backtest.Engine
	optimizer   *optimize.Engine
	runner      *jobs.Runner
	defaults    recommend.Params
	startedAt   time.Time
}

// NewHandler creates the API handler.
func NewHandler(
	store *maturity.Store,
	recommender *recommend.Engine,
	backtester *backtest.Engine,
	optimizer *optimize.Engine,
	runner *jobs.Runner,
	defaults recommend.Params,
) *Handler {
	return &Handler{
		store:       store,
		recommender: recommender,
		backtester:  backtester,
		optimizer:   optimizer,
		runner:      runner,
		defaults:    defaults.WithDefaults(),
		startedAt:   time.Now(),
	}
}

// decodeAndValidate decodes the request body into dst and runs struct
// validation. Writes the error response itself and reports success.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		rw.BadRequest("invalid request body: " + err.Error())
		return false
	}

	if err := validate.Struct(dst); err != nil {
		rw.ValidationError("invalid request", err.Error())
		return false
	}
	return true
}

// mergeParams overlays non-zero request knobs on the configured
// defaults, so partial requests inherit the deployment's tuning.
func (h *Handler) mergeParams(p recommend.Params) recommend.Params {
	merged := h.defaults
	if p.TopN != 0 {
		merged.TopN = p.TopN
	}
	if p.KSimilar != 0 {
		merged.KSimilar = p.KSimilar
	}
	if p.SimilarityWeight != 0 {
		merged.SimilarityWeight = p.SimilarityWeight
	}
	if p.LookaheadPeriods != 0 {
		merged.LookaheadPeriods = p.LookaheadPeriods
	}
	if p.RecentPeriods != 0 {
		merged.RecentPeriods = p.RecentPeriods
	}
	if p.MinSimilarity != 0 {
		merged.MinSimilarity = p.MinSimilarity
	}
	return merged
}
