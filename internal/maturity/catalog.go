// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package maturity

import "fmt"

// MaxLevel is the highest ordinal maturity level a practice can hold.
// Raw observations carry integer levels in [0, MaxLevel]; the store
// normalizes them to [0, 1] by dividing by MaxLevel.
const MaxLevel = 3

// Catalog is the fixed, ordered set of tracked practices. It is closed
// for the lifetime of one data load: every maturity vector in the store
// has exactly Len() components, in catalog order.
type Catalog struct {
	names []string
	index map[string]int
}

// NewCatalog creates a catalog from an ordered list of practice names.
// Names must be non-empty and unique.
func NewCatalog(names []string) (*Catalog, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: catalog requires at least one practice", ErrSchema)
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: empty practice name at position %d", ErrSchema, i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate practice name %q", ErrSchema, name)
		}
		index[name] = i
	}

	return &Catalog{
		names: append([]string(nil), names...),
		index: index,
	}, nil
}

// Len returns the number of tracked practices (P).
func (c *Catalog) Len() int {
	return len(c.names)
}

// Names returns the practice names in catalog order.
// The returned slice must not be modified.
func (c *Catalog) Names() []string {
	return c.names
}

// Name returns the practice name at the given vector position.
func (c *Catalog) Name(i int) string {
	return c.names[i]
}

// Index returns the vector position of a practice name.
func (c *Catalog) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}
