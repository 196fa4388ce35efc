// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package maturity

import "errors"

// ErrTeamNotFound indicates a lookup for a team name that is not in the store.
var ErrTeamNotFound = errors.New("team not found")

// ErrPeriodNotFound indicates a lookup for a period a team has no vector for.
var ErrPeriodNotFound = errors.New("period not found")

// ErrSchema indicates malformed input at load time: wrong vector length,
// out-of-range maturity level, duplicate observation, or empty identifiers.
// The ingestion layer validates first; this is the defensive boundary.
var ErrSchema = errors.New("schema error")
