// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

// Package dataset loads the practice catalog and raw team observations
// from a JSON file and builds the in-memory maturity store. Spreadsheet
// ingestion and richer validation live upstream; this loader assumes
// mostly clean input but still rejects anything that would corrupt the
// store.
package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/agilepath/internal/maturity"
)

// File is the on-disk dataset shape.
type File struct {
	// Practices is the ordered catalog; every observation's levels
	// vector matches its length and order.
	Practices []string `json:"practices"`

	// Observations are raw 0-3 integer maturity readings.
	Observations []Observation `json:"observations"`
}

// Observation is one raw data point.
type Observation struct {
	Team   string `json:"team"`
	Period int    `json:"period"`
	Levels []int  `json:"levels"`
}

// Load reads a dataset file and builds the store.
func Load(path string, logger zerolog.Logger) (*maturity.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()

	store, err := FromReader(f)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", path, err)
	}

	logger.Info().
		Str("path", path).
		Int("teams", len(store.Teams())).
		Int("practices", store.Catalog().Len()).
		Int("periods", len(store.Periods())).
		Msg("dataset loaded")
	return store, nil
}

// FromReader parses dataset JSON and builds the store.
func FromReader(r io.Reader) (*maturity.Store, error) {
	var file File
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", maturity.ErrSchema, err)
	}

	catalog, err := maturity.NewCatalog(file.Practices)
	if err != nil {
		return nil, err
	}

	observations := make([]maturity.RawObservation, len(file.Observations))
	for i, obs := range file.Observations {
		observations[i] = maturity.RawObservation{
			Team:   obs.Team,
			Period: maturity.Period(obs.Period),
			Levels: obs.Levels,
		}
	}

	return maturity.NewStore(catalog, observations)
}
