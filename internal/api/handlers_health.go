// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/agilepath/internal/maturity"
)

// HealthResponse is the payload for the health endpoint.
type HealthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Dataset       maturity.Stats `json:"dataset"`
}

// Health reports liveness plus the loaded dataset's shape.
//
// Method: GET
// Path: /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rw.Success(HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Dataset:       h.store.Stats(),
	})
}

// Stats reports summary statistics over the loaded observations.
//
// Method: GET
// Path: /api/v1/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(h.store.Stats())
}
