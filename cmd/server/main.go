// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

// Command server runs the Agilepath HTTP API.
//
// It loads the observation dataset once at startup, builds the
// in-memory maturity store, and serves recommendation, backtest, and
// optimization endpoints under a suture supervision tree.
//
// Configuration layers, lowest precedence first: built-in defaults, an
// optional YAML file (CONFIG_PATH or a well-known location), then
// environment variables such as PORT, DATA_PATH, and LOG_LEVEL.
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the
// in-flight background job (if any) is cancelled and the HTTP server
// drains before the process exits.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/agilepath/internal/api"
	"github.com/tomtom215/agilepath/internal/backtest"
	"github.com/tomtom215/agilepath/internal/config"
	"github.com/tomtom215/agilepath/internal/dataset"
	"github.com/tomtom215/agilepath/internal/jobs"
	"github.com/tomtom215/agilepath/internal/logging"
	"github.com/tomtom215/agilepath/internal/metrics"
	"github.com/tomtom215/agilepath/internal/optimize"
	"github.com/tomtom215/agilepath/internal/recommend"
	"github.com/tomtom215/agilepath/internal/supervisor"
	"github.com/tomtom215/agilepath/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors surface through the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("data_path", cfg.Data.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting Agilepath")

	store, err := dataset.Load(cfg.Data.Path, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load dataset")
	}

	stats := store.Stats()
	metrics.SetDatasetShape(stats.Teams, stats.Practices, stats.Periods)

	recommender := recommend.NewEngine(store, logging.With().Str("component", "recommend").Logger())
	backtester := backtest.NewEngine(recommender, logging.With().Str("component", "backtest").Logger())
	optimizer := optimize.NewEngine(backtester, logging.With().Str("component", "optimize").Logger())
	runner := jobs.NewRunner(logging.Logger())

	handler := api.NewHandler(store, recommender, backtester, optimizer, runner, cfg.Recommend.Params())
	router := api.NewRouter(handler, api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.API.CORSOrigins,
		RateLimitRequests:  cfg.API.RateLimitReqs,
		RateLimitWindow:    cfg.API.RateLimitWindow,
	}))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	logging.Info().Str("addr", server.Addr).Msg("Agilepath ready")

	err = <-errCh
	if err != nil && err != context.Canceled {
		logging.Error().Err(err).Msg("Supervisor shutdown error")
	}

	shutdownJob(runner, cfg.Server.ShutdownTimeout)

	logging.Info().Msg("Agilepath stopped")
}

// shutdownJob cancels any in-flight background job and waits briefly
// for it to flush its partial result.
func shutdownJob(runner *jobs.Runner, timeout time.Duration) {
	if err := runner.Cancel(); err != nil {
		return
	}

	done := runner.Done()
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(timeout):
		logging.Warn().Msg("Background job did not stop within shutdown timeout")
	}
}
