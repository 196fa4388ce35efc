// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/agilepath/internal/jobs"
	"github.com/tomtom215/agilepath/internal/metrics"
	"github.com/tomtom215/agilepath/internal/optimize"
	"github.com/tomtom215/agilepath/internal/recommend"
)

// BacktestRequest is the body for starting a backtest job. An empty
// body runs with the configured default parameters.
type BacktestRequest struct {
	Params recommend.Params `json:"params"`
}

// OptimizeRequest is the body for starting a parameter sweep. Empty
// grid dimensions take the tuned default ranges.
type OptimizeRequest struct {
	Grid    optimize.Grid    `json:"grid"`
	Options optimize.Options `json:"options"`
}

// JobStartedResponse acknowledges an enqueued background job.
type JobStartedResponse struct {
	JobID string `json:"job_id"`
	Kind  string `json:"kind"`
}

// BacktestStart launches a rolling-origin backtest as a background job.
// Only one job runs at a time; a second start returns JOB_RUNNING.
//
// Method: POST
// Path: /api/v1/backtest
//
// Request Body: BacktestRequest (optional)
func (h *Handler) BacktestStart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BacktestRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(rw, r, &req) {
			return
		}
	}
	params := h.mergeParams(req.Params)

	h.startJob(rw, r, "backtest", func(ctx context.Context) (any, error) {
		return h.backtester.Run(ctx, params)
	})
}

// OptimizeStart launches a grid-search parameter sweep as a background
// job.
//
// Method: POST
// Path: /api/v1/optimize
//
// Request Body: OptimizeRequest (optional)
func (h *Handler) OptimizeStart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req OptimizeRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(rw, r, &req) {
			return
		}
	}

	h.startJob(rw, r, "optimize", func(ctx context.Context) (any, error) {
		return h.optimizer.Run(ctx, req.Grid, req.Options)
	})
}

// startJob hands fn to the runner with job metrics wrapped around it.
func (h *Handler) startJob(rw *ResponseWriter, r *http.Request, kind string, fn jobs.Fn) {
	wrapped := func(ctx context.Context) (any, error) {
		start := time.Now()
		result, err := fn(ctx)
		metrics.RecordJobFinished(kind, jobOutcome(err), time.Since(start))
		return result, err
	}

	id, err := h.runner.Start(kind, wrapped)
	if err != nil {
		respondDomainError(rw, r, err)
		return
	}
	metrics.RecordJobStarted(kind)

	rw.Accepted(JobStartedResponse{JobID: id, Kind: kind})
}

// JobStatus reports the current or most recently finished job.
//
// Method: GET
// Path: /api/v1/jobs/current
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status, err := h.runner.Status()
	if err != nil {
		respondDomainError(rw, r, err)
		return
	}

	rw.Success(status)
}

// JobCancel requests cancellation of the in-flight job. The job keeps
// running until it observes the cancelled context; poll JobStatus for
// the final state.
//
// Method: DELETE
// Path: /api/v1/jobs/current
func (h *Handler) JobCancel(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.runner.Cancel(); err != nil {
		respondDomainError(rw, r, err)
		return
	}

	status, err := h.runner.Status()
	if err != nil {
		respondDomainError(rw, r, err)
		return
	}

	rw.Success(status)
}

func jobOutcome(err error) string {
	switch {
	case err == nil:
		return string(jobs.StateCompleted)
	case errors.Is(err, context.Canceled):
		return string(jobs.StateCancelled)
	default:
		return string(jobs.StateFailed)
	}
}
