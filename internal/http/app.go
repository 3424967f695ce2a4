// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"
	"net/http"

	"followup_backend/internal/events"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"
	"followup_backend/platform/metrics"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	Logger *logger.Logger
	// Health is used for the health endpoint (database ping).
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Metrics records per-route request metrics. May be nil.
	Metrics *metrics.HTTPMetrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
