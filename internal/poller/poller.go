// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

// Package poller drives the detection loop: at a fixed interval it
// fetches the most recent events and runs the rule engine over them.
// Evaluation is at-least-once; an event still inside the fetch window
// is re-evaluated every cycle.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/vigilsec/vigil/internal/detection"
	"github.com/vigilsec/vigil/internal/logging"
	"github.com/vigilsec/vigil/internal/metrics"
	"github.com/vigilsec/vigil/internal/models"
)

// EventProcessor evaluates one event against the rule set.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event *models.Event) ([]models.Alert, error)
}

// Config configures the poller.
type Config struct {
	// Interval between poll cycles.
	Interval time.Duration

	// FetchLimit is the number of most recent events per cycle.
	FetchLimit int
}

// Poller runs the fixed-interval detection loop.
type Poller struct {
	events    detection.EventSource
	processor EventProcessor
	interval  time.Duration
	limit     int

	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a poller over the given event source and processor.
func New(events detection.EventSource, processor EventProcessor, cfg Config) *Poller {
	interval := cfg.Interval
	if interval < time.Second {
		interval = time.Second
	}
	limit := cfg.FetchLimit
	if limit <= 0 {
		limit = 50
	}

	return &Poller{
		events:    events,
		processor: processor,
		interval:  interval,
		limit:     limit,
		stopChan:  make(chan struct{}),
	}
}

// RunWithContext runs the poll loop until the context is canceled or
// Stop is called. The first cycle runs immediately. Cycle failures are
// logged and never terminate the loop.
func (p *Poller) RunWithContext(ctx context.Context) error {
	logging.Info().
		Dur("interval", p.interval).
		Int("fetch_limit", p.limit).
		Msg("Detection poller started")

	p.runCycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Detection poller stopped")
			return ctx.Err()
		case <-p.stopChan:
			logging.Info().Msg("Detection poller stopped")
			return nil
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

// Stop signals the loop to exit. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

// runCycle fetches the working set and evaluates every event.
func (p *Poller) runCycle(ctx context.Context) {
	start := time.Now()

	events, err := p.events.RecentEvents(ctx, p.limit)
	if err != nil {
		logging.Error().Err(err).Msg("Event fetch failed, skipping cycle")
		metrics.RecordPollCycle(time.Since(start), 0)
		return
	}

	alertCount := 0
	for i := range events {
		alerts, err := p.processor.ProcessEvent(ctx, &events[i])
		if err != nil {
			logging.Error().Err(err).
				Str("event_id", events[i].ID.String()).
				Msg("Event evaluation reported errors")
		}
		alertCount += len(alerts)
	}

	metrics.RecordPollCycle(time.Since(start), len(events))
	logging.Debug().
		Int("events", len(events)).
		Int("alerts", alertCount).
		Dur("duration", time.Since(start)).
		Msg("Poll cycle complete")
}
