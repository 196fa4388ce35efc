// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

// Package api provides the HTTP surface: Chi routing, standardized
// response envelopes, request validation, and the handlers that expose
// the recommendation core, sequence tables, and background jobs.
package api
