// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/agilepath/internal/backtest"
	"github.com/tomtom215/agilepath/internal/jobs"
	"github.com/tomtom215/agilepath/internal/logging"
	"github.com/tomtom215/agilepath/internal/maturity"
	"github.com/tomtom215/agilepath/internal/recommend"
)

// respondDomainError maps domain errors to the API error taxonomy.
// Unknown errors become 500s without leaking internals to the client.
func respondDomainError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, maturity.ErrTeamNotFound),
		errors.Is(err, maturity.ErrPeriodNotFound),
		errors.Is(err, recommend.ErrPracticeNotFound):
		rw.NotFound(err.Error())

	case errors.Is(err, recommend.ErrInsufficientHistory):
		rw.UnprocessableEntity(ErrCodeInsufficientHistory, err.Error())

	case errors.Is(err, backtest.ErrInsufficientData):
		rw.UnprocessableEntity(ErrCodeInsufficientData, err.Error())

	case errors.Is(err, jobs.ErrJobRunning):
		rw.Conflict(ErrCodeJobRunning, err.Error())

	case errors.Is(err, jobs.ErrNoJob):
		rw.NotFound(err.Error())

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "request cancelled")

	default:
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("unhandled API error")
		rw.InternalError("an internal error occurred")
	}
}
