// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
}

// NewRouter creates the router.
func NewRouter(handler *Handler, middleware *ChiMiddleware) *Router {
	if middleware == nil {
		middleware = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, middleware: middleware}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())
	r.Use(RequestLogging())

	// Prometheus metrics, outside the versioned API and its rate limit.
	r.Handle("/metrics", promhttp.Handler())

	// Health stays outside the rate limit so monitors can poll freely.
	r.Get("/api/v1/health", router.handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())

		r.Get("/stats", router.handler.Stats)
		r.Get("/practices", router.handler.Practices)

		r.Get("/teams", router.handler.Teams)
		r.Get("/teams/{team}/periods", router.handler.TeamPeriods)
		r.Get("/teams/{team}/recommendations", router.handler.TeamRecommendations)
		r.Get("/teams/{team}/practices/{practice}/explanation", router.handler.Explain)

		r.Post("/recommendations", router.handler.Recommendations)

		r.Get("/sequences/transitions", router.handler.Transitions)
		r.Get("/sequences/transitions/{practice}", router.handler.TypicalNext)

		r.Post("/backtest", router.handler.BacktestStart)
		r.Post("/optimize", router.handler.OptimizeStart)
		r.Get("/jobs/current", router.handler.JobStatus)
		r.Delete("/jobs/current", router.handler.JobCancel)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	return r
}
