// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package maturity

import "strconv"

// Period is an opaque, totally-ordered time key in YYYYMMDD form
// (e.g., 20200107 for the January 2020 snapshot).
//
// Integer comparison on Period is the ONLY ordering used to decide
// "past" versus "future" anywhere in the system. Wall-clock time is
// never consulted.
type Period int

// Before reports whether p is strictly earlier than other.
func (p Period) Before(other Period) bool {
	return p < other
}

// After reports whether p is strictly later than other.
func (p Period) After(other Period) bool {
	return p > other
}

// String returns the period in its YYYYMMDD decimal form.
func (p Period) String() string {
	return strconv.Itoa(int(p))
}
