// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

// Package config loads layered application configuration: struct
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/agilepath/internal/recommend"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Data      DataConfig      `koanf:"data"`
	Recommend RecommendConfig `koanf:"recommend"`
	API       APIConfig       `koanf:"api"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DataConfig locates the observation dataset.
type DataConfig struct {
	// Path is the JSON dataset file with the practice catalog and raw
	// observations.
	Path string `koanf:"path"`
}

// RecommendConfig holds the default recommendation knobs; per-request
// parameters override them.
type RecommendConfig struct {
	TopN             int     `koanf:"top_n"`
	KSimilar         int     `koanf:"k_similar"`
	SimilarityWeight float64 `koanf:"similarity_weight"`
	LookaheadPeriods int     `koanf:"lookahead_periods"`
	RecentPeriods    int     `koanf:"recent_periods"`
	MinSimilarity    float64 `koanf:"min_similarity"`
}

// Params converts the section into engine parameters.
func (r RecommendConfig) Params() recommend.Params {
	return recommend.Params{
		TopN:             r.TopN,
		KSimilar:         r.KSimilar,
		SimilarityWeight: r.SimilarityWeight,
		LookaheadPeriods: r.LookaheadPeriods,
		RecentPeriods:    r.RecentPeriods,
		MinSimilarity:    r.MinSimilarity,
	}
}

// APIConfig configures the HTTP API surface.
type APIConfig struct {
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// defaultConfig returns every default value; file and environment
// layers override it.
func defaultConfig() *Config {
	params := recommend.DefaultParams()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8095,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Data: DataConfig{
			Path: "/data/observations.json",
		},
		Recommend: RecommendConfig{
			TopN:             params.TopN,
			KSimilar:         params.KSimilar,
			SimilarityWeight: params.SimilarityWeight,
			LookaheadPeriods: params.LookaheadPeriods,
			RecentPeriods:    params.RecentPeriods,
			MinSimilarity:    params.MinSimilarity,
		},
		API: APIConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
	}
}

// Validate checks the configuration for values no deployment can run
// with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive, got %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %v", c.Server.WriteTimeout)
	}
	if c.Data.Path == "" {
		return fmt.Errorf("data.path must not be empty")
	}
	if err := c.Recommend.Params().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if c.API.RateLimitReqs < 1 {
		return fmt.Errorf("api.rate_limit_reqs must be >= 1, got %d", c.API.RateLimitReqs)
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("api.rate_limit_window must be positive, got %v", c.API.RateLimitWindow)
	}
	return nil
}
