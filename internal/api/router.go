// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig configures the HTTP router.
type RouterConfig struct {
	// APIKey protects the /api routes. Empty disables authentication.
	APIKey string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	CORSOrigins       []string
}

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handlers *Handlers
	config   RouterConfig
}

// NewRouter creates a router over the given handlers.
func NewRouter(handlers *Handlers, config RouterConfig) *Router {
	if config.RateLimitRequests == 0 {
		config.RateLimitRequests = 100
	}
	if config.RateLimitWindow == 0 {
		config.RateLimitWindow = time.Minute
	}
	return &Router{handlers: handlers, config: config}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", APIKeyHeader},
		MaxAge:         86400,
	}))

	r.Get("/health", router.handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.rateLimit())
		r.Use(APIKeyAuth(router.config.APIKey))
		r.Use(chiPathValue)

		r.Post("/ingest", router.handlers.IngestEvent)
		r.Get("/events", router.handlers.ListEvents)
		r.Get("/alerts", router.handlers.ListAlerts)
		r.Post("/alerts/{id}/ack", router.handlers.AcknowledgeAlert)
	})

	return r
}

// rateLimit returns the IP-based rate limiting middleware, or a no-op
// when disabled.
func (router *Router) rateLimit() func(http.Handler) http.Handler {
	if router.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		router.config.RateLimitRequests,
		router.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// chiPathValue bridges Chi URL params to r.PathValue() so handlers
// stay router-agnostic.
func chiPathValue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		if rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if i < len(rctx.URLParams.Values) {
					r.SetPathValue(key, rctx.URLParams.Values[i])
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
