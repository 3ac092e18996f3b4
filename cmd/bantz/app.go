package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bantz/internal/config"
	"bantz/internal/errors"
	"bantz/internal/finalizer"
	"bantz/internal/llm"
	"bantz/internal/logging"
	"bantz/internal/observability"
	"bantz/internal/pipeline"
	"bantz/internal/planner"
	"bantz/internal/react"
	"bantz/internal/schema"
	"bantz/internal/session"
	"bantz/internal/tools"
	"bantz/internal/tools/builtin"
	"bantz/pkg/types"
)

// app bundles everything a running CLI needs.
type app struct {
	pipeline *pipeline.Pipeline
	tracing  *observability.TracerProvider
	registry *prometheus.Registry
	logger   logging.Logger
}

// buildApp assembles the full stack from configuration.
func buildApp(cfg config.Config) (*app, error) {
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})

	tracing, err := observability.NewTracerProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	promRegistry := prometheus.NewRegistry()

	toolRegistry := tools.NewRegistry(logger)
	if err := builtin.RegisterAll(toolRegistry, builtin.NewCalendarStore()); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	retryConfig := errors.DefaultRetryConfig()
	if cfg.Planner.MaxRetries > 0 {
		retryConfig.MaxAttempts = cfg.Planner.MaxRetries + 1
	}
	plannerClient := llm.WrapWithRetry(llm.NewOpenAIClient(cfg.Planner, logger), retryConfig)
	qualityClient := llm.WrapWithRetry(llm.NewOpenAIClient(cfg.Quality, logger), retryConfig)

	repairMetrics := schema.NewRepairMetrics(0, promRegistry)
	plan := planner.New(plannerClient, toolRegistry, repairMetrics, logger)

	executor := tools.NewExecutor(toolRegistry, tools.ExecutorConfig{}, logger)
	controller := react.NewController(plan, executor, react.Config{
		MaxIterations: cfg.React.MaxIterations,
		Timeout:       time.Duration(cfg.React.TimeoutSeconds) * time.Second,
	}, nil, logger)

	fin := finalizer.New(qualityClient, plannerClient, finalizer.Config{
		Mode:            finalizerMode(cfg.Finalizer.Mode),
		TokenBudget:     cfg.Finalizer.TokenBudget,
		CheckCurrency:   cfg.Finalizer.CheckCurrency,
		AllowDraftFacts: cfg.Finalizer.AllowDraftFacts,
	}, logger)

	turnMetrics := pipeline.MustNewMetrics(promRegistry)
	pipe := pipeline.New(plan, controller, fin, session.NewManager(), turnMetrics, tracing.Tracer(), logger)

	return &app{pipeline: pipe, tracing: tracing, registry: promRegistry, logger: logger}, nil
}

func finalizerMode(mode string) types.FinalizeMode {
	switch types.FinalizeMode(mode) {
	case types.FinalizeOff, types.FinalizeCalendarOnly, types.FinalizeSmalltalkOnly, types.FinalizeAlways:
		return types.FinalizeMode(mode)
	default:
		return types.FinalizeAlways
	}
}

// serveMetrics exposes the Prometheus scrape endpoint when addr is non-empty.
func (a *app) serveMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler(a.registry))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.logger.Error("metrics server: %v", err)
		}
	}()
	a.logger.Info("metrics listening on %s/metrics", addr)
}

func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.logger.Warn("tracing shutdown: %v", err)
	}
}
