// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

// Vigil ingests security telemetry events, stores them in Postgres,
// and runs a polling detection loop that evaluates per-event rules and
// raises alerts delivered over webhook and email.
//
// Startup sequence:
//  1. Load configuration (defaults, optional YAML file, environment)
//  2. Initialize logging
//  3. Connect to Postgres and ensure the schema
//  4. Build the detection engine, rules, and notifiers
//  5. Start the supervision tree (poller + HTTP server)
//  6. Run until SIGINT/SIGTERM
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vigilsec/vigil/internal/api"
	"github.com/vigilsec/vigil/internal/config"
	"github.com/vigilsec/vigil/internal/database"
	"github.com/vigilsec/vigil/internal/detection"
	"github.com/vigilsec/vigil/internal/logging"
	"github.com/vigilsec/vigil/internal/notify"
	"github.com/vigilsec/vigil/internal/poller"
	"github.com/vigilsec/vigil/internal/supervisor"
	"github.com/vigilsec/vigil/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Dur("poll_interval", cfg.Poller.Interval).
		Bool("webhook_enabled", cfg.Webhook.Enabled()).
		Bool("email_enabled", cfg.SMTP.Enabled()).
		Msg("Starting Vigil")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := database.New(ctx, cfg.Database.DSN)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	engine := buildEngine(cfg, store)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	p := poller.New(store, engine, poller.Config{
		Interval:   cfg.Poller.Interval,
		FetchLimit: cfg.Poller.FetchLimit,
	})
	tree.AddDetectionService(services.NewPollerService(p))

	router := api.NewRouter(api.NewHandlers(store), api.RouterConfig{
		APIKey:            cfg.Server.APIKey,
		RateLimitRequests: cfg.Server.RateLimitReqs,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		RateLimitDisabled: cfg.Server.RateLimitDisabled,
		CORSOrigins:       cfg.Server.CORSOrigins,
	})
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	logging.Info().Str("addr", server.Addr).Msg("Vigil started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree failed")
		}
	}

	// Drain the supervisor result after cancellation.
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop cleanly")
		}
	}

	logging.Info().Msg("Vigil stopped")
}

// buildEngine wires the rule set and notification channels.
func buildEngine(cfg *config.Config, store *database.Store) *detection.Engine {
	engine := detection.NewEngine(store)

	engine.RegisterRule(detection.NewBruteForceRule())
	engine.RegisterRule(detection.NewGeoMismatchRule())

	if cfg.Webhook.Enabled() {
		engine.RegisterNotifier(notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     cfg.Webhook.URL,
			Timeout: cfg.Webhook.Timeout,
		}))
	}
	if cfg.SMTP.Enabled() {
		engine.RegisterNotifier(notify.NewEmailNotifier(notify.EmailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			To:       cfg.SMTP.To,
		}))
	}

	return engine
}
